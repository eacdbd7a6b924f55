package export

import (
	"encoding/csv"
	"io"

	"github.com/storelane/storelane/internal/analytics"
)

// WriteKPICSV serialises the KPI summary card as metric/value rows.
func WriteKPICSV(w io.Writer, summary analytics.KPISummary, period string) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Period", period},
		{"MTD Sales", formatMoney(summary.SalesMTD)},
		{"MTD Transactions", formatCount(summary.TxMTD)},
		{"MTD Units", formatCount(summary.UnitsMTD)},
		{"Units per Transaction", formatRate(summary.UPTMtd)},
		{"Avg Spend per Transaction", formatMoney(summary.ADSMtd)},
		{"Avg Unit Revenue", formatMoney(summary.AURMtd)},
		{"Week over Week", formatComparison(summary.WoWPercent)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSalesCSV emits the period sales table, one row per bucket.
func WriteSalesCSV(w io.Writer, entries []analytics.SalesEntry) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{
		"Period", "Sales", "Transactions", "Units", "Discount",
		"Dine In", "Takeout", "Delivery", "Card", "Cash",
		"UPT", "Avg Spend", "Avg Unit Revenue",
	}); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := writer.Write([]string{
			entry.Label,
			formatMoney(entry.Sales),
			formatCount(entry.Transactions),
			formatCount(entry.Units),
			formatMoney(entry.Discount),
			formatMoney(entry.DineInSales),
			formatMoney(entry.TakeoutSales),
			formatMoney(entry.DeliverySales),
			formatMoney(entry.CardSales),
			formatMoney(entry.CashSales),
			formatRate(entry.UnitsPerTransaction),
			formatMoney(entry.AvgSpendPerTransaction),
			formatMoney(entry.AvgUnitRevenue),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteRankingsCSV emits the top and low menu performers.
func WriteRankingsCSV(w io.Writer, rankings analytics.MenuRankings) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"List", "Rank", "Menu", "Units", "Sales", "Share %"}); err != nil {
		return err
	}
	write := func(list string, menus []analytics.RankedMenu) error {
		for i, menu := range menus {
			if err := writer.Write([]string{
				list,
				formatCount(int64(i + 1)),
				menu.MenuName,
				formatCount(menu.Units),
				formatMoney(menu.Sales),
				formatRate(menu.ContributionPercent),
			}); err != nil {
				return err
			}
		}
		return nil
	}
	if err := write("top", rankings.Top); err != nil {
		return err
	}
	if err := write("low", rankings.Low); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}
