package analytics

import (
	"context"
	"time"
)

// TimebandFilter scopes the time/weekday report. FullDay bypasses the
// business-hours restriction.
type TimebandFilter struct {
	StoreID int64
	Start   time.Time
	End     time.Time
	ViewBy  ViewBy
	FullDay bool
	Size    int
	Cursor  string
}

// ListTimebands returns one page of (label, weekday, hour) buckets, label
// descending then weekday and hour ascending. Weekdays are ISO numbered.
func (s *Service) ListTimebands(ctx context.Context, filter TimebandFilter) (Page[TimebandRow], error) {
	win, err := Range(filter.Start, filter.End, s.loc)
	if err != nil {
		return Page[TimebandRow]{}, err
	}
	viewBy := filter.ViewBy
	if viewBy != ViewByMonth {
		viewBy = ViewByDay
	}
	size := normalizeSize(filter.Size)

	query := TimebandQuery{
		StoreID: filter.StoreID,
		Window:  win,
		ViewBy:  viewBy,
		FullDay: filter.FullDay,
		Limit:   size + 1,
	}
	if cursor, ok := DecodeTimebandCursor(filter.Cursor, viewBy); ok {
		query.After = &cursor
	}

	rows, err := s.repo.TimebandSales(ctx, query)
	if err != nil {
		return Page[TimebandRow]{}, err
	}
	return BuildPage(rows, size, func(row TimebandRow) string {
		return TimebandCursor{Label: row.Label, Weekday: row.Weekday, Hour: row.Hour}.Encode()
	}), nil
}
