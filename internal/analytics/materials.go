package analytics

import "context"

// ListMaterialCosts returns one page of (label, material) cost buckets with
// each row's cost rate against the bucket's sales. A zero-sales bucket
// reports 0.0 percent regardless of cost.
func (s *Service) ListMaterialCosts(ctx context.Context, filter ListFilter) (Page[MaterialCostEntry], error) {
	win, err := Range(filter.Start, filter.End, s.loc)
	if err != nil {
		return Page[MaterialCostEntry]{}, err
	}
	viewBy := filter.viewBy()
	size := normalizeSize(filter.Size)

	query := MaterialQuery{StoreID: filter.StoreID, Window: win, ViewBy: viewBy, Limit: size + 1}
	if cursor, ok := DecodeEntityCursor(filter.Cursor, viewBy); ok {
		query.After = &cursor
	}

	rows, err := s.repo.MaterialCosts(ctx, query)
	if err != nil {
		return Page[MaterialCostEntry]{}, err
	}
	entries := make([]MaterialCostEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, MaterialCostEntry{
			MaterialCostRow: row,
			CostRatePercent: CostRatePercent(row.Cost, row.LabelSales),
		})
	}
	return BuildPage(entries, size, func(e MaterialCostEntry) string {
		return EntityCursor{Label: e.Label, EntityID: e.MaterialID}.Encode()
	}), nil
}
