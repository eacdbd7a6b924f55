package analytics

import "context"

// ListSales returns one page of day or month sales buckets, most recent
// first, each augmented with UPT/ADS/AUR.
func (s *Service) ListSales(ctx context.Context, filter ListFilter) (Page[SalesEntry], error) {
	win, err := Range(filter.Start, filter.End, s.loc)
	if err != nil {
		return Page[SalesEntry]{}, err
	}
	viewBy := filter.viewBy()
	size := normalizeSize(filter.Size)

	query := SalesQuery{StoreID: filter.StoreID, Window: win, ViewBy: viewBy, Limit: size + 1}
	if cursor, ok := DecodeLabelCursor(filter.Cursor, viewBy); ok {
		query.After = &cursor
	}

	rows, err := s.repo.SalesByPeriod(ctx, query)
	if err != nil {
		return Page[SalesEntry]{}, err
	}
	entries := make([]SalesEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, SalesEntry{
			SalesRow:               row,
			UnitsPerTransaction:    UnitsPerTransaction(row.Units, row.Transactions),
			AvgSpendPerTransaction: AvgSpendPerTransaction(row.Sales, row.Transactions),
			AvgUnitRevenue:         AvgUnitRevenue(row.Sales, row.Units),
		})
	}
	return BuildPage(entries, size, func(e SalesEntry) string {
		return LabelCursor{Label: e.Label}.Encode()
	}), nil
}
