package export

import (
	"github.com/storelane/storelane/internal/analytics"
)

// ChartPoint is one bucket of the report's sales chart, in chronological
// order.
type ChartPoint struct {
	Label        string
	Sales        int64
	Transactions int64
	Units        int64
}

// ReportPayload aggregates everything one rendered report needs: the KPI
// card, the menu rankings, a chronological chart series and the period table.
// It is a flat value; rendering and serialisation live in the PDF and CSV
// writers.
type ReportPayload struct {
	StoreID     int64
	PeriodStart string
	PeriodEnd   string
	ViewBy      analytics.ViewBy
	Summary     analytics.KPISummary
	Rankings    analytics.MenuRankings
	Chart       []ChartPoint
	Table       []analytics.SalesEntry
}

// BuildPayload assembles the report payload. The table keeps the listing's
// most-recent-first ordering; the chart runs oldest to newest.
func BuildPayload(storeID int64, win analytics.Window, viewBy analytics.ViewBy, summary analytics.KPISummary, rankings analytics.MenuRankings, table []analytics.SalesEntry) ReportPayload {
	chart := make([]ChartPoint, 0, len(table))
	for i := len(table) - 1; i >= 0; i-- {
		row := table[i]
		chart = append(chart, ChartPoint{
			Label:        row.Label,
			Sales:        row.Sales,
			Transactions: row.Transactions,
			Units:        row.Units,
		})
	}
	return ReportPayload{
		StoreID:     storeID,
		PeriodStart: win.Start.Format(analytics.DayLabelLayout),
		PeriodEnd:   win.End.AddDate(0, 0, -1).Format(analytics.DayLabelLayout),
		ViewBy:      viewBy,
		Summary:     summary,
		Rankings:    rankings,
		Chart:       chart,
		Table:       table,
	}
}

// Period renders the inclusive reporting interval for display.
func (p ReportPayload) Period() string {
	if p.PeriodStart == p.PeriodEnd {
		return p.PeriodStart
	}
	return p.PeriodStart + " to " + p.PeriodEnd
}
