package analytichttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/storelane/storelane/internal/analytics"
	"github.com/storelane/storelane/internal/analytics/export"
	_ "github.com/storelane/storelane/testing"
)

type stubService struct {
	summary   analytics.KPISummary
	salesPage analytics.Page[analytics.SalesEntry]
	salesErr  error
	rankings  analytics.MenuRankings
	lastSales analytics.ListFilter
	lastKPI   analytics.KPIFilter
}

func (s *stubService) GetKPISummary(ctx context.Context, filter analytics.KPIFilter) (analytics.KPISummary, error) {
	s.lastKPI = filter
	return s.summary, nil
}

func (s *stubService) ListSales(ctx context.Context, filter analytics.ListFilter) (analytics.Page[analytics.SalesEntry], error) {
	s.lastSales = filter
	if s.salesErr != nil {
		return analytics.Page[analytics.SalesEntry]{}, s.salesErr
	}
	return s.salesPage, nil
}

func (s *stubService) ListMenuSales(ctx context.Context, filter analytics.ListFilter) (analytics.Page[analytics.MenuSalesEntry], error) {
	return analytics.Page[analytics.MenuSalesEntry]{Items: []analytics.MenuSalesEntry{}}, nil
}

func (s *stubService) GetMenuRankings(ctx context.Context, filter analytics.RankFilter) (analytics.MenuRankings, error) {
	return s.rankings, nil
}

func (s *stubService) ListMaterialCosts(ctx context.Context, filter analytics.ListFilter) (analytics.Page[analytics.MaterialCostEntry], error) {
	return analytics.Page[analytics.MaterialCostEntry]{Items: []analytics.MaterialCostEntry{}}, nil
}

func (s *stubService) ListTimebands(ctx context.Context, filter analytics.TimebandFilter) (analytics.Page[analytics.TimebandRow], error) {
	return analytics.Page[analytics.TimebandRow]{Items: []analytics.TimebandRow{}}, nil
}

func (s *stubService) ListOrders(ctx context.Context, filter analytics.OrderListFilter) (analytics.Page[analytics.OrderRow], error) {
	return analytics.Page[analytics.OrderRow]{Items: []analytics.OrderRow{}}, nil
}

func (s *stubService) Location() *time.Location {
	return time.UTC
}

type stubPDF struct {
	data []byte
	err  error
	last export.ReportPayload
}

func (s *stubPDF) RenderReport(ctx context.Context, payload export.ReportPayload) ([]byte, error) {
	s.last = payload
	if s.err != nil {
		return nil, s.err
	}
	if s.data == nil {
		s.data = []byte("%PDF-1.4\nreport")
	}
	return s.data, nil
}

func newTestRouter(service *stubService, pdf *stubPDF) chi.Router {
	handler := NewHandler(nil, service, pdf)
	handler.WithNow(func() time.Time { return time.Date(2025, 11, 15, 9, 0, 0, 0, time.UTC) })
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

func TestKPIEndpoint(t *testing.T) {
	service := &stubService{summary: analytics.KPISummary{SalesMTD: 21000, TxMTD: 2, UnitsMTD: 9, UPTMtd: 4.5, ADSMtd: 10500, AURMtd: 2333}}
	router := newTestRouter(service, &stubPDF{})

	req := httptest.NewRequest(http.MethodGet, "/analytics/kpi?store_id=7", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.EqualValues(t, 21000, body["salesMtd"])
	require.Contains(t, rr.Body.String(), `"wowPercent":null`)
	require.EqualValues(t, 7, service.lastKPI.StoreID)
	require.Equal(t, 15, service.lastKPI.Today.Day())
}

func TestKPIRequiresStoreID(t *testing.T) {
	router := newTestRouter(&stubService{}, &stubPDF{})
	req := httptest.NewRequest(http.MethodGet, "/analytics/kpi", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSalesEndpointPassesFilter(t *testing.T) {
	cursor := "2025-11-02"
	service := &stubService{salesPage: analytics.Page[analytics.SalesEntry]{
		Items: []analytics.SalesEntry{{
			SalesRow: analytics.SalesRow{Label: "2025-11-02", Sales: 5000, Transactions: 1, Units: 2},
		}},
		NextCursor: &cursor,
	}}
	router := newTestRouter(service, &stubPDF{})

	req := httptest.NewRequest(http.MethodGet,
		"/analytics/sales?store_id=7&start=2025-11-01&end=2025-11-02&view_by=day&size=1&cursor=abc", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"nextCursor":"2025-11-02"`)
	require.Equal(t, analytics.ViewByDay, service.lastSales.ViewBy)
	require.Equal(t, 1, service.lastSales.Size)
	require.Equal(t, "abc", service.lastSales.Cursor)
	require.Equal(t, 1, service.lastSales.Start.Day())
}

func TestSalesEndpointRequiresRange(t *testing.T) {
	router := newTestRouter(&stubService{}, &stubPDF{})
	req := httptest.NewRequest(http.MethodGet, "/analytics/sales?store_id=7&start=2025-11-01", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSalesEndpointRejectsInvertedRange(t *testing.T) {
	service := &stubService{salesErr: analytics.ErrInvalidRange}
	router := newTestRouter(service, &stubPDF{})
	req := httptest.NewRequest(http.MethodGet,
		"/analytics/sales?store_id=7&start=2025-11-02&end=2025-11-01", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "end must not precede start")
}

func TestSalesEndpointRejectsBadViewBy(t *testing.T) {
	router := newTestRouter(&stubService{}, &stubPDF{})
	req := httptest.NewRequest(http.MethodGet,
		"/analytics/sales?store_id=7&start=2025-11-01&end=2025-11-02&view_by=WEEK", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPDFEndpoint(t *testing.T) {
	service := &stubService{
		summary: analytics.KPISummary{SalesMTD: 21000},
		salesPage: analytics.Page[analytics.SalesEntry]{Items: []analytics.SalesEntry{{
			SalesRow: analytics.SalesRow{Label: "2025-11-02", Sales: 5000},
		}}},
	}
	pdf := &stubPDF{}
	router := newTestRouter(service, pdf)

	req := httptest.NewRequest(http.MethodGet,
		"/analytics/report.pdf?store_id=7&start=2025-11-01&end=2025-11-02", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	require.True(t, strings.HasPrefix(rr.Body.String(), "%PDF"))
	require.EqualValues(t, 7, pdf.last.StoreID)
	require.Equal(t, "2025-11-01", pdf.last.PeriodStart)
	require.Equal(t, "2025-11-02", pdf.last.PeriodEnd)
	// The report table is loaded unpaginated regardless of the request size.
	require.Equal(t, analytics.MaxPageSize, service.lastSales.Size)
	require.Empty(t, service.lastSales.Cursor)
}

func TestPDFEndpointReportsUpstreamFailure(t *testing.T) {
	service := &stubService{}
	pdf := &stubPDF{err: errors.New("gotenberg response 500")}
	router := newTestRouter(service, pdf)

	req := httptest.NewRequest(http.MethodGet,
		"/analytics/report.pdf?store_id=7&start=2025-11-01&end=2025-11-02", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestCSVEndpoint(t *testing.T) {
	service := &stubService{
		summary: analytics.KPISummary{SalesMTD: 21000},
		salesPage: analytics.Page[analytics.SalesEntry]{Items: []analytics.SalesEntry{{
			SalesRow: analytics.SalesRow{Label: "2025-11-02", Sales: 5000, Transactions: 1, Units: 2},
		}}},
		rankings: analytics.MenuRankings{
			Top: []analytics.RankedMenu{{MenuID: 1, MenuName: "Latte", Units: 10, Sales: 30000, ContributionPercent: 60.0}},
		},
	}
	router := newTestRouter(service, &stubPDF{})

	req := httptest.NewRequest(http.MethodGet,
		"/analytics/export.csv?store_id=7&start=2025-11-01&end=2025-11-02", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	body := rr.Body.String()
	require.Contains(t, body, "MTD Sales")
	require.Contains(t, body, "Latte")
	require.Contains(t, body, "2025-11-02")
}
