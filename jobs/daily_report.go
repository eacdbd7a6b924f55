package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/storelane/storelane/internal/analytics"
	"github.com/storelane/storelane/internal/analytics/export"
	jobmetrics "github.com/storelane/storelane/internal/jobs"
)

// ReportSource is the slice of the analytics service the report job reads.
type ReportSource interface {
	ActiveStoreIDs(ctx context.Context) ([]int64, error)
	GetKPISummary(ctx context.Context, filter analytics.KPIFilter) (analytics.KPISummary, error)
	GetMenuRankings(ctx context.Context, filter analytics.RankFilter) (analytics.MenuRankings, error)
	ListSales(ctx context.Context, filter analytics.ListFilter) (analytics.Page[analytics.SalesEntry], error)
	Location() *time.Location
}

// ReportRenderer converts a report payload into PDF bytes.
type ReportRenderer interface {
	RenderReport(ctx context.Context, payload export.ReportPayload) ([]byte, error)
}

// DailyReportJob renders the trailing-week sales report per store and writes
// the PDF artifact to the configured storage directory.
type DailyReportJob struct {
	Analytics  ReportSource
	Renderer   ReportRenderer
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	StorageDir string
	clock      func() time.Time
}

// NewDailyReportJob wires dependencies for the report handler.
func NewDailyReportJob(analyticsSvc ReportSource, renderer ReportRenderer, logger *slog.Logger, metrics *jobmetrics.Metrics, storageDir string) *DailyReportJob {
	return &DailyReportJob{
		Analytics:  analyticsSvc,
		Renderer:   renderer,
		Logger:     logger,
		Metrics:    metrics,
		StorageDir: storageDir,
		clock:      time.Now,
	}
}

// WithClock overrides the job clock for testing.
func (j *DailyReportJob) WithClock(fn func() time.Time) {
	if fn != nil {
		j.clock = fn
	}
}

// Handle processes daily report tasks.
func (j *DailyReportJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Analytics == nil || j.Renderer == nil {
		return errors.New("daily report: handler not configured")
	}
	var payload DailyReportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskDailyReport)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()

	storeIDs := []int64{payload.StoreID}
	if payload.StoreID == 0 {
		ids, err := j.Analytics.ActiveStoreIDs(ctx)
		if err != nil {
			resultErr = err
			logger.Error("load active stores", slog.Any("error", err))
			return resultErr
		}
		storeIDs = ids
	}

	for _, storeID := range storeIDs {
		if err := j.renderStore(ctx, storeID); err != nil {
			j.metrics().AddReport("failure")
			resultErr = err
			logger.Error("render report", slog.Int64("store_id", storeID), slog.Any("error", err))
			return resultErr
		}
		j.metrics().AddReport("success")
	}

	logger.Info("completed daily reports", slog.Int("stores", len(storeIDs)))
	return resultErr
}

func (j *DailyReportJob) renderStore(ctx context.Context, storeID int64) error {
	storeCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	loc := j.Analytics.Location()
	today := j.now().In(loc)
	// Report covers the last seven full days, ending yesterday.
	end := today.AddDate(0, 0, -1)
	start := today.AddDate(0, 0, -7)

	summary, err := j.Analytics.GetKPISummary(storeCtx, analytics.KPIFilter{StoreID: storeID, Today: today})
	if err != nil {
		return err
	}
	rankings, err := j.Analytics.GetMenuRankings(storeCtx, analytics.RankFilter{
		StoreID: storeID, Start: start, End: end, By: analytics.RankBySales,
	})
	if err != nil {
		return err
	}
	page, err := j.Analytics.ListSales(storeCtx, analytics.ListFilter{
		StoreID: storeID, Start: start, End: end, Size: analytics.MaxPageSize,
	})
	if err != nil {
		return err
	}

	win, err := analytics.Range(start, end, loc)
	if err != nil {
		return err
	}
	payload := export.BuildPayload(storeID, win, analytics.ViewByDay, summary, rankings, page.Items)
	pdf, err := j.Renderer.RenderReport(storeCtx, payload)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(j.StorageDir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("store-%d-%s-%s.pdf", storeID, end.Format(analytics.DayLabelLayout), uuid.NewString())
	return os.WriteFile(filepath.Join(j.StorageDir, name), pdf, 0o644)
}

func (j *DailyReportJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDailyReport))
	}
	return slog.Default().With(slog.String("job", TaskDailyReport))
}

func (j *DailyReportJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DailyReportJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}
