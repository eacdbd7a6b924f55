package analytics

import (
	"context"
	"time"
)

// ListMenuSales returns one page of (label, menu) buckets sorted label
// descending then menu id ascending.
func (s *Service) ListMenuSales(ctx context.Context, filter ListFilter) (Page[MenuSalesEntry], error) {
	win, err := Range(filter.Start, filter.End, s.loc)
	if err != nil {
		return Page[MenuSalesEntry]{}, err
	}
	viewBy := filter.viewBy()
	size := normalizeSize(filter.Size)

	query := MenuQuery{StoreID: filter.StoreID, Window: win, ViewBy: viewBy, Limit: size + 1}
	if cursor, ok := DecodeEntityCursor(filter.Cursor, viewBy); ok {
		query.After = &cursor
	}

	rows, err := s.repo.MenuSales(ctx, query)
	if err != nil {
		return Page[MenuSalesEntry]{}, err
	}
	entries := make([]MenuSalesEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, MenuSalesEntry{
			MenuSalesRow:   row,
			AvgUnitRevenue: AvgUnitRevenue(row.Sales, row.Units),
		})
	}
	return BuildPage(entries, size, func(e MenuSalesEntry) string {
		return EntityCursor{Label: e.Label, EntityID: e.MenuID}.Encode()
	}), nil
}

// RankFilter scopes the top/low performer rankings.
type RankFilter struct {
	StoreID int64
	Start   time.Time
	End     time.Time
	By      RankBy
}

// GetMenuRankings resolves the top and low menu performers for the window
// with their contribution shares, cache-aware.
func (s *Service) GetMenuRankings(ctx context.Context, filter RankFilter) (MenuRankings, error) {
	win, err := Range(filter.Start, filter.End, s.loc)
	if err != nil {
		return MenuRankings{}, err
	}
	by := filter.By
	if by == "" {
		by = RankBySales
	}

	loader := func(ctx context.Context) (interface{}, error) {
		totals, err := s.repo.MenuTotals(ctx, filter.StoreID, win)
		if err != nil {
			return MenuRankings{}, err
		}
		return RankMenus(totals, by, DefaultRankSize), nil
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return MenuRankings{}, err
		}
		return value.(MenuRankings), nil
	}

	key, err := s.cache.BuildKey(ctx, keyMenuRankings(filter.StoreID, win, by))
	if err != nil {
		return MenuRankings{}, err
	}
	var rankings MenuRankings
	if err := s.cache.FetchJSON(ctx, key, &rankings, loader); err != nil {
		return MenuRankings{}, err
	}
	return rankings, nil
}
