package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/storelane/storelane/internal/analytics"
	"github.com/storelane/storelane/report"
	_ "github.com/storelane/storelane/testing"
)

func samplePayload() ReportPayload {
	win := analytics.Window{
		Start: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC),
	}
	wow := 12.5
	summary := analytics.KPISummary{
		SalesMTD: 1500000, TxMTD: 300, UnitsMTD: 450,
		UPTMtd: 1.5, ADSMtd: 5000, AURMtd: 3333, WoWPercent: &wow,
	}
	rankings := analytics.MenuRankings{
		Top: []analytics.RankedMenu{{MenuID: 1, MenuName: "Latte", Units: 100, Sales: 500000, ContributionPercent: 33.3}},
		Low: []analytics.RankedMenu{{MenuID: 9, MenuName: "Mocha", Units: 4, Sales: 20000, ContributionPercent: 1.3}},
	}
	table := []analytics.SalesEntry{
		{SalesRow: analytics.SalesRow{Label: "2025-11-02", Sales: 5000, Transactions: 1, Units: 2}, UnitsPerTransaction: 2.0, AvgSpendPerTransaction: 5000, AvgUnitRevenue: 2500},
		{SalesRow: analytics.SalesRow{Label: "2025-11-01", Sales: 10000, Transactions: 2, Units: 3}, UnitsPerTransaction: 1.5, AvgSpendPerTransaction: 5000, AvgUnitRevenue: 3333},
	}
	return BuildPayload(7, win, analytics.ViewByDay, summary, rankings, table)
}

func TestBuildPayloadChartIsChronological(t *testing.T) {
	payload := samplePayload()
	if payload.PeriodStart != "2025-11-01" || payload.PeriodEnd != "2025-11-02" {
		t.Fatalf("period must display the inclusive end: %s to %s", payload.PeriodStart, payload.PeriodEnd)
	}
	if len(payload.Chart) != 2 {
		t.Fatalf("expected 2 chart points got %d", len(payload.Chart))
	}
	if payload.Chart[0].Label != "2025-11-01" || payload.Chart[1].Label != "2025-11-02" {
		t.Fatalf("chart must run oldest first: %+v", payload.Chart)
	}
	if payload.Table[0].Label != "2025-11-02" {
		t.Fatalf("table must keep most-recent-first order: %+v", payload.Table)
	}
}

func TestWriteKPICSV(t *testing.T) {
	payload := samplePayload()
	buf := &bytes.Buffer{}
	if err := WriteKPICSV(buf, payload.Summary, payload.Period()); err != nil {
		t.Fatalf("kpi csv error: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("csv read error: %v", err)
	}
	if len(records) != 9 {
		t.Fatalf("expected header plus 8 rows, got %d", len(records))
	}
	if records[2][0] != "MTD Sales" || records[2][1] != "1,500,000" {
		t.Fatalf("unexpected sales row %v", records[2])
	}
	if records[8][0] != "Week over Week" || records[8][1] != "+12.5%" {
		t.Fatalf("unexpected comparison row %v", records[8])
	}
}

func TestWriteKPICSVMissingComparison(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteKPICSV(buf, analytics.KPISummary{}, "2025-11-01"); err != nil {
		t.Fatalf("kpi csv error: %v", err)
	}
	if !strings.Contains(buf.String(), "Week over Week,n/a") {
		t.Fatalf("nil comparison must print n/a:\n%s", buf.String())
	}
}

func TestWriteSalesCSV(t *testing.T) {
	payload := samplePayload()
	buf := &bytes.Buffer{}
	if err := WriteSalesCSV(buf, payload.Table); err != nil {
		t.Fatalf("sales csv error: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("csv read error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[1][0] != "2025-11-02" || records[1][1] != "5,000" {
		t.Fatalf("unexpected first data row %v", records[1])
	}
}

func TestBuildHTMLEscapesMenuNames(t *testing.T) {
	payload := samplePayload()
	payload.Rankings.Top[0].MenuName = "<b>Latte & Co</b>"
	html := BuildHTML(payload)
	if strings.Contains(html, "<b>Latte") {
		t.Fatalf("menu name must be escaped")
	}
	if !strings.Contains(html, "&lt;b&gt;Latte &amp; Co&lt;/b&gt;") {
		t.Fatalf("escaped menu name missing:\n%s", html)
	}
	if !strings.Contains(html, "Store 7 Sales Report") {
		t.Fatalf("report heading missing")
	}
}

func TestPDFExporterRender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/chromium/convert/html" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(64 << 10); err != nil {
			t.Fatalf("unexpected parse error: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("PDF"))
	}))
	defer srv.Close()

	exporter := &PDFExporter{Renderer: report.NewClient(srv.URL)}
	data, err := exporter.RenderReport(context.Background(), samplePayload())
	if err != nil {
		t.Fatalf("pdf render error: %v", err)
	}
	if string(data) != "PDF" {
		t.Fatalf("unexpected payload %q", string(data))
	}
}
