package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/storelane/storelane/internal/analytics"
)

// HTMLRenderer converts an HTML document into PDF bytes. The Gotenberg
// client satisfies it.
type HTMLRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// PDFExporter renders report payloads through Gotenberg.
type PDFExporter struct {
	Renderer HTMLRenderer
}

// RenderReport builds the report document and converts it to PDF. A renderer
// failure propagates unchanged so callers can report it as an upstream fault.
func (p *PDFExporter) RenderReport(ctx context.Context, payload ReportPayload) ([]byte, error) {
	if p == nil || p.Renderer == nil {
		return nil, fmt.Errorf("pdf exporter not initialised")
	}
	return p.Renderer.RenderHTML(ctx, BuildHTML(payload))
}

// BuildHTML renders the report payload as a standalone HTML document.
func BuildHTML(payload ReportPayload) string {
	var b strings.Builder
	b.WriteString("<html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}table{width:100%;border-collapse:collapse;margin-bottom:16px;}th,td{border:1px solid #ddd;padding:6px;text-align:right;}th{text-align:left;background:#f5f5f5;}section{margin-bottom:24px;} .metric-label{text-align:left;}")
	b.WriteString("</style></head><body>")
	b.WriteString(fmt.Sprintf("<h1>Store %d Sales Report - %s</h1>", payload.StoreID, templateEscape(payload.Period())))

	b.WriteString("<section><h2>Month to Date</h2><table><tbody>")
	writeMetricRow(&b, "Sales", formatMoney(payload.Summary.SalesMTD))
	writeMetricRow(&b, "Transactions", formatCount(payload.Summary.TxMTD))
	writeMetricRow(&b, "Units", formatCount(payload.Summary.UnitsMTD))
	writeMetricRow(&b, "Units per Transaction", formatRate(payload.Summary.UPTMtd))
	writeMetricRow(&b, "Avg Spend per Transaction", formatMoney(payload.Summary.ADSMtd))
	writeMetricRow(&b, "Avg Unit Revenue", formatMoney(payload.Summary.AURMtd))
	writeMetricRow(&b, "Week over Week", formatComparison(payload.Summary.WoWPercent))
	b.WriteString("</tbody></table></section>")

	writeRankingSection(&b, "Top Menus", payload.Rankings.Top)
	writeRankingSection(&b, "Low Menus", payload.Rankings.Low)

	if len(payload.Table) > 0 {
		b.WriteString("<section><h2>Sales by Period</h2><table><thead><tr><th>Period</th><th>Sales</th><th>Tx</th><th>Units</th><th>Discount</th><th>UPT</th><th>Avg Spend</th><th>Avg Unit</th></tr></thead><tbody>")
		for _, row := range payload.Table {
			b.WriteString("<tr><td class=\"metric-label\">")
			b.WriteString(templateEscape(row.Label))
			b.WriteString("</td><td>")
			b.WriteString(formatMoney(row.Sales))
			b.WriteString("</td><td>")
			b.WriteString(formatCount(row.Transactions))
			b.WriteString("</td><td>")
			b.WriteString(formatCount(row.Units))
			b.WriteString("</td><td>")
			b.WriteString(formatMoney(row.Discount))
			b.WriteString("</td><td>")
			b.WriteString(formatRate(row.UnitsPerTransaction))
			b.WriteString("</td><td>")
			b.WriteString(formatMoney(row.AvgSpendPerTransaction))
			b.WriteString("</td><td>")
			b.WriteString(formatMoney(row.AvgUnitRevenue))
			b.WriteString("</td></tr>")
		}
		b.WriteString("</tbody></table></section>")
	}

	b.WriteString("</body></html>")
	return b.String()
}

func writeRankingSection(b *strings.Builder, title string, menus []analytics.RankedMenu) {
	if len(menus) == 0 {
		return
	}
	b.WriteString("<section><h2>")
	b.WriteString(templateEscape(title))
	b.WriteString("</h2><table><thead><tr><th>#</th><th>Menu</th><th>Units</th><th>Sales</th><th>Share</th></tr></thead><tbody>")
	for i, menu := range menus {
		b.WriteString("<tr><td class=\"metric-label\">")
		b.WriteString(fmt.Sprintf("%d", i+1))
		b.WriteString("</td><td class=\"metric-label\">")
		b.WriteString(templateEscape(menu.MenuName))
		b.WriteString("</td><td>")
		b.WriteString(formatCount(menu.Units))
		b.WriteString("</td><td>")
		b.WriteString(formatMoney(menu.Sales))
		b.WriteString("</td><td>")
		b.WriteString(formatRate(menu.ContributionPercent))
		b.WriteString("%</td></tr>")
	}
	b.WriteString("</tbody></table></section>")
}

func writeMetricRow(b *strings.Builder, label, value string) {
	b.WriteString("<tr><td class=\"metric-label\">")
	b.WriteString(templateEscape(label))
	b.WriteString("</td><td>")
	b.WriteString(value)
	b.WriteString("</td></tr>")
}

func templateEscape(v string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(v)
}
