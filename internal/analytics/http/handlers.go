package analytichttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/storelane/storelane/internal/analytics"
	"github.com/storelane/storelane/internal/analytics/export"
	"github.com/storelane/storelane/internal/platform/httpx"
)

const requestTimeout = 5 * time.Second

// AnalyticsService defines the reporting contract used by the handler.
type AnalyticsService interface {
	GetKPISummary(ctx context.Context, filter analytics.KPIFilter) (analytics.KPISummary, error)
	ListSales(ctx context.Context, filter analytics.ListFilter) (analytics.Page[analytics.SalesEntry], error)
	ListMenuSales(ctx context.Context, filter analytics.ListFilter) (analytics.Page[analytics.MenuSalesEntry], error)
	GetMenuRankings(ctx context.Context, filter analytics.RankFilter) (analytics.MenuRankings, error)
	ListMaterialCosts(ctx context.Context, filter analytics.ListFilter) (analytics.Page[analytics.MaterialCostEntry], error)
	ListTimebands(ctx context.Context, filter analytics.TimebandFilter) (analytics.Page[analytics.TimebandRow], error)
	ListOrders(ctx context.Context, filter analytics.OrderListFilter) (analytics.Page[analytics.OrderRow], error)
	Location() *time.Location
}

// PDFService renders report payloads to PDF bytes.
type PDFService interface {
	RenderReport(ctx context.Context, payload export.ReportPayload) ([]byte, error)
}

// Handler serves the store analytics API.
type Handler struct {
	logger   *slog.Logger
	service  AnalyticsService
	pdf      PDFService
	validate *validator.Validate
	csvPool  sync.Pool
	now      func() time.Time
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(logger *slog.Logger, service AnalyticsService, pdf PDFService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:   logger,
		service:  service,
		pdf:      pdf,
		validate: validator.New(),
		now:      time.Now,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// listQuery is the parsed shape of every listing request.
type listQuery struct {
	StoreID int64  `validate:"required,gt=0"`
	Start   time.Time
	End     time.Time
	ViewBy  string `validate:"omitempty,oneof=DAY MONTH"`
	Size    int    `validate:"gte=0,lte=200"`
	Cursor  string
	FullDay bool
}

func (q listQuery) viewBy() analytics.ViewBy {
	if q.ViewBy == string(analytics.ViewByMonth) {
		return analytics.ViewByMonth
	}
	return analytics.ViewByDay
}

func (q listQuery) listFilter() analytics.ListFilter {
	return analytics.ListFilter{
		StoreID: q.StoreID,
		Start:   q.Start,
		End:     q.End,
		ViewBy:  q.viewBy(),
		Size:    q.Size,
		Cursor:  q.Cursor,
	}
}

func (h *Handler) parseQuery(r *http.Request, needRange bool) (listQuery, error) {
	values := r.URL.Query()
	q := listQuery{
		ViewBy: strings.ToUpper(strings.TrimSpace(values.Get("view_by"))),
		Cursor: strings.TrimSpace(values.Get("cursor")),
	}

	storeStr := strings.TrimSpace(values.Get("store_id"))
	if storeStr != "" {
		id, err := strconv.ParseInt(storeStr, 10, 64)
		if err != nil {
			return listQuery{}, fmt.Errorf("%w: store_id", httpx.ErrValidation)
		}
		q.StoreID = id
	}

	if sizeStr := strings.TrimSpace(values.Get("size")); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil || size < 0 {
			return listQuery{}, fmt.Errorf("%w: size", httpx.ErrValidation)
		}
		q.Size = size
	}

	if fullDayStr := strings.TrimSpace(values.Get("full_day")); fullDayStr != "" {
		fullDay, err := strconv.ParseBool(fullDayStr)
		if err != nil {
			return listQuery{}, fmt.Errorf("%w: full_day", httpx.ErrValidation)
		}
		q.FullDay = fullDay
	}

	loc := h.service.Location()
	if startStr := strings.TrimSpace(values.Get("start")); startStr != "" {
		start, err := time.ParseInLocation(analytics.DayLabelLayout, startStr, loc)
		if err != nil {
			return listQuery{}, fmt.Errorf("%w: start", httpx.ErrValidation)
		}
		q.Start = start
	}
	if endStr := strings.TrimSpace(values.Get("end")); endStr != "" {
		end, err := time.ParseInLocation(analytics.DayLabelLayout, endStr, loc)
		if err != nil {
			return listQuery{}, fmt.Errorf("%w: end", httpx.ErrValidation)
		}
		q.End = end
	}
	if needRange && (q.Start.IsZero() || q.End.IsZero()) {
		return listQuery{}, fmt.Errorf("%w: start and end are required", httpx.ErrValidation)
	}

	if err := h.validate.Struct(q); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return listQuery{}, fmt.Errorf("%w: %s", httpx.ErrValidation, strings.ToLower(fieldErrs[0].Field()))
		}
		return listQuery{}, fmt.Errorf("%w: query", httpx.ErrValidation)
	}
	return q, nil
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, analytics.ErrInvalidRange) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "end must not precede start")
		return
	}
	if errors.Is(err, httpx.ErrValidation) || errors.Is(err, httpx.ErrUpstream) {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func (h *Handler) handleKPI(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r, false)
	if err != nil {
		h.respondError(w, "parse kpi query", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	today := h.now().In(h.service.Location())
	summary, err := h.service.GetKPISummary(ctx, analytics.KPIFilter{StoreID: q.StoreID, Today: today})
	if err != nil {
		h.respondError(w, "load kpi summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleSales(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r, true)
	if err != nil {
		h.respondError(w, "parse sales query", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	page, err := h.service.ListSales(ctx, q.listFilter())
	if err != nil {
		h.respondError(w, "list sales", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) handleMenus(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r, true)
	if err != nil {
		h.respondError(w, "parse menus query", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	page, err := h.service.ListMenuSales(ctx, q.listFilter())
	if err != nil {
		h.respondError(w, "list menu sales", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) handleMenusTop(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r, true)
	if err != nil {
		h.respondError(w, "parse rankings query", err)
		return
	}
	by := analytics.RankBySales
	if strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("by")), string(analytics.RankByUnits)) {
		by = analytics.RankByUnits
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rankings, err := h.service.GetMenuRankings(ctx, analytics.RankFilter{
		StoreID: q.StoreID, Start: q.Start, End: q.End, By: by,
	})
	if err != nil {
		h.respondError(w, "load menu rankings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rankings)
}

func (h *Handler) handleMaterials(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r, true)
	if err != nil {
		h.respondError(w, "parse materials query", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	page, err := h.service.ListMaterialCosts(ctx, q.listFilter())
	if err != nil {
		h.respondError(w, "list material costs", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) handleTimebands(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r, true)
	if err != nil {
		h.respondError(w, "parse timebands query", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	page, err := h.service.ListTimebands(ctx, analytics.TimebandFilter{
		StoreID: q.StoreID,
		Start:   q.Start,
		End:     q.End,
		ViewBy:  q.viewBy(),
		FullDay: q.FullDay,
		Size:    q.Size,
		Cursor:  q.Cursor,
	})
	if err != nil {
		h.respondError(w, "list timebands", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) handleOrders(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r, true)
	if err != nil {
		h.respondError(w, "parse orders query", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	page, err := h.service.ListOrders(ctx, analytics.OrderListFilter{
		StoreID: q.StoreID,
		Start:   q.Start,
		End:     q.End,
		Size:    q.Size,
		Cursor:  q.Cursor,
	})
	if err != nil {
		h.respondError(w, "list orders", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

// reportData is the fan-out result feeding PDF and CSV exports.
type reportData struct {
	summary  analytics.KPISummary
	rankings analytics.MenuRankings
	table    []analytics.SalesEntry
}

func (h *Handler) loadReportData(ctx context.Context, q listQuery) (reportData, error) {
	var data reportData
	today := h.now().In(h.service.Location())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := h.service.GetKPISummary(gctx, analytics.KPIFilter{StoreID: q.StoreID, Today: today})
		if err != nil {
			return err
		}
		data.summary = summary
		return nil
	})
	g.Go(func() error {
		rankings, err := h.service.GetMenuRankings(gctx, analytics.RankFilter{
			StoreID: q.StoreID, Start: q.Start, End: q.End, By: analytics.RankBySales,
		})
		if err != nil {
			return err
		}
		data.rankings = rankings
		return nil
	})
	g.Go(func() error {
		filter := q.listFilter()
		filter.Size = analytics.MaxPageSize
		filter.Cursor = ""
		page, err := h.service.ListSales(gctx, filter)
		if err != nil {
			return err
		}
		data.table = page.Items
		return nil
	})
	if err := g.Wait(); err != nil {
		return reportData{}, err
	}
	return data, nil
}

func (h *Handler) reportWindow(q listQuery) (analytics.Window, error) {
	return analytics.Range(q.Start, q.End, h.service.Location())
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		h.respondError(w, "pdf exporter", errors.New("pdf exporter not configured"))
		return
	}
	q, err := h.parseQuery(r, true)
	if err != nil {
		h.respondError(w, "parse report query", err)
		return
	}
	win, err := h.reportWindow(q)
	if err != nil {
		h.respondError(w, "resolve report window", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	data, err := h.loadReportData(ctx, q)
	if err != nil {
		h.respondError(w, "load report data", err)
		return
	}
	payload := export.BuildPayload(q.StoreID, win, q.viewBy(), data.summary, data.rankings, data.table)
	pdfBytes, err := h.pdf.RenderReport(ctx, payload)
	if err != nil {
		h.respondError(w, "render pdf", fmt.Errorf("%w: %v", httpx.ErrUpstream, err))
		return
	}

	filename := fmt.Sprintf("store-%d-%s.pdf", q.StoreID, payload.PeriodEnd)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(pdfBytes); err != nil {
		h.logger.Error("stream pdf", slog.Any("error", err))
	}
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r, true)
	if err != nil {
		h.respondError(w, "parse export query", err)
		return
	}
	win, err := h.reportWindow(q)
	if err != nil {
		h.respondError(w, "resolve report window", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	data, err := h.loadReportData(ctx, q)
	if err != nil {
		h.respondError(w, "load report data", err)
		return
	}
	payload := export.BuildPayload(q.StoreID, win, q.viewBy(), data.summary, data.rankings, data.table)

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteKPICSV(buf, payload.Summary, payload.Period()); err != nil {
		h.respondError(w, "write kpi csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteRankingsCSV(buf, payload.Rankings); err != nil {
		h.respondError(w, "write rankings csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteSalesCSV(buf, payload.Table); err != nil {
		h.respondError(w, "write sales csv", err)
		return
	}

	filename := fmt.Sprintf("store-%d-%s.csv", q.StoreID, payload.PeriodEnd)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("stream csv", slog.Any("error", err))
	}
}
