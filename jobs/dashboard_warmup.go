package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/storelane/storelane/internal/analytics"
	jobmetrics "github.com/storelane/storelane/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// AnalyticsWarmer is the slice of the analytics service the warmup job needs.
type AnalyticsWarmer interface {
	ActiveStoreIDs(ctx context.Context) ([]int64, error)
	GetKPISummary(ctx context.Context, filter analytics.KPIFilter) (analytics.KPISummary, error)
	GetMenuRankings(ctx context.Context, filter analytics.RankFilter) (analytics.MenuRankings, error)
	Location() *time.Location
}

// DashboardWarmupJob pre-populates the KPI and ranking caches so the first
// dashboard request of the day is served warm.
type DashboardWarmupJob struct {
	Analytics AnalyticsWarmer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(analyticsSvc AnalyticsWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{
		Analytics: analyticsSvc,
		Logger:    logger,
		Metrics:   metrics,
		clock:     time.Now,
	}
}

// WithClock overrides the job clock for testing.
func (j *DashboardWarmupJob) WithClock(fn func() time.Time) {
	if fn != nil {
		j.clock = fn
	}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Analytics == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskDashboardWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting dashboard warmup")

	storeIDs := payload.StoreIDs
	if len(storeIDs) == 0 {
		ids, err := j.Analytics.ActiveStoreIDs(ctx)
		if err != nil {
			resultErr = err
			logger.Error("load active stores", slog.Any("error", err))
			return resultErr
		}
		storeIDs = ids
	}
	if len(storeIDs) == 0 {
		logger.Info("no active stores discovered")
		return resultErr
	}

	today := j.now().In(j.Analytics.Location())
	start := today.AddDate(0, 0, -30)
	warmed := 0
	for _, storeID := range storeIDs {
		if err := j.warmStore(ctx, storeID, today, start); err != nil {
			resultErr = err
			logger.Error("warm store", slog.Int64("store_id", storeID), slog.Any("error", err))
			return resultErr
		}
		warmed++
	}
	j.metrics().AddWarmedStores(warmed)

	logger.Info("completed dashboard warmup", slog.Int("stores", warmed))
	return resultErr
}

func (j *DashboardWarmupJob) warmStore(ctx context.Context, storeID int64, today, start time.Time) error {
	// Each store gets its own timeout so one slow scan cannot stall the run.
	storeCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	if _, err := j.Analytics.GetKPISummary(storeCtx, analytics.KPIFilter{StoreID: storeID, Today: today}); err != nil {
		return err
	}
	end := today.AddDate(0, 0, -1)
	if end.Before(start) {
		end = start
	}
	for _, by := range []analytics.RankBy{analytics.RankBySales, analytics.RankByUnits} {
		if _, err := j.Analytics.GetMenuRankings(storeCtx, analytics.RankFilter{
			StoreID: storeID, Start: start, End: end, By: by,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}

func (j *DashboardWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DashboardWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}
