package analytics

import (
	"context"
	"time"
)

// OrderListFilter scopes the raw completed-order listing.
type OrderListFilter struct {
	StoreID int64
	Start   time.Time
	End     time.Time
	Size    int
	Cursor  string
}

// ListOrders returns one page of raw completed orders, newest row id first.
// The cursor is the last returned row id.
func (s *Service) ListOrders(ctx context.Context, filter OrderListFilter) (Page[OrderRow], error) {
	win, err := Range(filter.Start, filter.End, s.loc)
	if err != nil {
		return Page[OrderRow]{}, err
	}
	size := normalizeSize(filter.Size)

	query := OrderQuery{StoreID: filter.StoreID, Window: win, Limit: size + 1}
	if cursor, ok := DecodeRowCursor(filter.Cursor); ok {
		query.After = &cursor
	}

	rows, err := s.repo.CompletedOrders(ctx, query)
	if err != nil {
		return Page[OrderRow]{}, err
	}
	return BuildPage(rows, size, func(row OrderRow) string {
		return RowCursor{ID: row.ID}.Encode()
	}), nil
}
