package analytics

import (
	"errors"
	"time"
)

// Window is a half-open datetime interval [Start, End). A calendar day D is
// represented as [D 00:00, D+1 00:00) in the business time zone so midnight
// rows are neither double counted nor dropped.
type Window struct {
	Start time.Time
	End   time.Time
}

// ErrInvalidRange indicates end precedes start. It is rejected before any
// aggregation query executes.
var ErrInvalidRange = errors.New("analytics: range end precedes start")

// IsEmpty reports whether the window contains no instants.
func (w Window) IsEmpty() bool {
	return !w.Start.Before(w.End)
}

// Contains reports whether t falls inside the half-open interval.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func dayStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// MonthToDate resolves "this month through yesterday": the window runs from
// the first of today's month up to, but excluding, today. On the first of the
// month the window is empty and all sums over it are zero, not an error.
func MonthToDate(today time.Time, loc *time.Location) Window {
	start := dayStart(today, loc)
	start = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, loc)
	return Window{Start: start, End: dayStart(today, loc)}
}

// TrailingWeeks resolves two adjacent seven-day windows anchored on
// yesterday: recent = [today-7, today) and prior = [today-14, today-7).
func TrailingWeeks(today time.Time, loc *time.Location) (recent, prior Window) {
	end := dayStart(today, loc)
	mid := end.AddDate(0, 0, -7)
	start := end.AddDate(0, 0, -14)
	return Window{Start: mid, End: end}, Window{Start: start, End: mid}
}

// Range converts an inclusive calendar range [start, end] into the half-open
// window [start 00:00, end+1 00:00). end before start is a caller bug and is
// surfaced as ErrInvalidRange.
func Range(start, end time.Time, loc *time.Location) (Window, error) {
	s := dayStart(start, loc)
	e := dayStart(end, loc)
	if e.Before(s) {
		return Window{}, ErrInvalidRange
	}
	return Window{Start: s, End: e.AddDate(0, 0, 1)}, nil
}

// ISOWeekday maps Go's Sunday-based weekday onto ISO numbering,
// 1=Monday through 7=Sunday.
func ISOWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}
