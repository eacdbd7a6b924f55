package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup refreshes per-store dashboard caches.
	TaskDashboardWarmup = "analytics:dashboard_warmup"
	// TaskDailyReport renders the scheduled PDF report per store.
	TaskDailyReport = "analytics:daily_report"
)

// DashboardWarmupPayload scopes a warmup run. An empty StoreIDs slice means
// every active store.
type DashboardWarmupPayload struct {
	StoreIDs []int64 `json:"store_ids,omitempty"`
}

// NewDashboardWarmupTask constructs the warmup task.
func NewDashboardWarmupTask(payload DashboardWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}

// DailyReportPayload scopes a report run. StoreID 0 means every active store.
type DailyReportPayload struct {
	StoreID int64 `json:"store_id,omitempty"`
}

// NewDailyReportTask constructs the daily report task.
func NewDailyReportTask(payload DailyReportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDailyReport, data), nil
}
