package analytics

import "sort"

// RankBy selects the measure used for menu and material rankings.
type RankBy string

const (
	RankByUnits RankBy = "UNITS"
	RankBySales RankBy = "SALES"
)

// DefaultRankSize bounds the top/low performer lists on summary reports.
const DefaultRankSize = 5

// TopN returns the n highest (or lowest, when asc is set) rows by the metric
// selector. Ties are broken by ascending entity id so repeated calls over the
// same input always produce the same order. Fewer than n rows are returned
// as-is, never padded.
func TopN[T any](rows []T, n int, metric func(T) int64, id func(T) int64, asc bool) []T {
	if n <= 0 || len(rows) == 0 {
		return nil
	}
	ranked := make([]T, len(rows))
	copy(ranked, rows)
	sort.SliceStable(ranked, func(i, j int) bool {
		mi, mj := metric(ranked[i]), metric(ranked[j])
		if mi != mj {
			if asc {
				return mi < mj
			}
			return mi > mj
		}
		return id(ranked[i]) < id(ranked[j])
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// RankMenus builds the top and low performer lists from per-menu totals,
// attaching each entry's contribution share of the window's total sales.
func RankMenus(totals []MenuTotalRow, by RankBy, n int) MenuRankings {
	metric := func(row MenuTotalRow) int64 { return row.Sales }
	if by == RankByUnits {
		metric = func(row MenuTotalRow) int64 { return row.Units }
	}
	id := func(row MenuTotalRow) int64 { return row.MenuID }

	var totalSales int64
	for _, row := range totals {
		totalSales += row.Sales
	}

	convert := func(rows []MenuTotalRow) []RankedMenu {
		out := make([]RankedMenu, 0, len(rows))
		for _, row := range rows {
			out = append(out, RankedMenu{
				MenuID:              row.MenuID,
				MenuName:            row.MenuName,
				Units:               row.Units,
				Sales:               row.Sales,
				ContributionPercent: ContributionPercent(row.Sales, totalSales),
			})
		}
		return out
	}

	return MenuRankings{
		Top: convert(TopN(totals, n, metric, id, false)),
		Low: convert(TopN(totals, n, metric, id, true)),
	}
}
