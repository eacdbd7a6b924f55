package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/storelane/storelane/internal/analytics"
	jobmetrics "github.com/storelane/storelane/internal/jobs"
	"github.com/storelane/storelane/jobs"
)

type recordingWarmer struct {
	storeIDs  []int64
	kpiCalls  []analytics.KPIFilter
	rankCalls []analytics.RankFilter
}

func (w *recordingWarmer) ActiveStoreIDs(_ context.Context) ([]int64, error) {
	return append([]int64(nil), w.storeIDs...), nil
}

func (w *recordingWarmer) GetKPISummary(_ context.Context, filter analytics.KPIFilter) (analytics.KPISummary, error) {
	w.kpiCalls = append(w.kpiCalls, filter)
	return analytics.KPISummary{}, nil
}

func (w *recordingWarmer) GetMenuRankings(_ context.Context, filter analytics.RankFilter) (analytics.MenuRankings, error) {
	w.rankCalls = append(w.rankCalls, filter)
	return analytics.MenuRankings{}, nil
}

func (w *recordingWarmer) Location() *time.Location {
	return time.UTC
}

func TestDashboardWarmupRefreshFlow(t *testing.T) {
	warmer := &recordingWarmer{storeIDs: []int64{11, 22, 33}}
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)

	job := jobs.NewDashboardWarmupJob(warmer, nil, metrics)
	task, err := jobs.NewDashboardWarmupTask(jobs.DashboardWarmupPayload{})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("job handle: %v", err)
	}
	if len(warmer.kpiCalls) != 3 {
		t.Fatalf("expected 3 KPI refreshes, got %d", len(warmer.kpiCalls))
	}
	if len(warmer.rankCalls) != 6 {
		t.Fatalf("expected sales and units ranking refreshes per store, got %d", len(warmer.rankCalls))
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if !assertCounter(t, families, "storelane_jobs_total", map[string]string{"job": jobs.TaskDashboardWarmup, "status": "success"}, 1) {
		t.Fatalf("expected storelane_jobs_total increment for dashboard warmup")
	}
	if !assertCounter(t, families, "storelane_cache_warmups_total", map[string]string{"kind": "kpi"}, 3) {
		t.Fatalf("expected storelane_cache_warmups_total to count warmed stores")
	}
	if !metricExists(families, "storelane_job_duration_seconds") {
		t.Fatalf("expected storelane_job_duration_seconds to be recorded")
	}
}

func assertCounter(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string, expected float64) bool {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if matchLabels(metric.GetLabel(), labels) {
				if metric.GetCounter() == nil {
					return false
				}
				if metric.GetCounter().GetValue() == expected {
					return true
				}
			}
		}
	}
	return false
}

func metricExists(families []*dto.MetricFamily, name string) bool {
	for _, fam := range families {
		if fam.GetName() == name {
			return true
		}
	}
	return false
}

func matchLabels(pairs []*dto.LabelPair, expected map[string]string) bool {
	if len(expected) == 0 {
		return true
	}
	seen := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		seen[pair.GetName()] = pair.GetValue()
	}
	for k, v := range expected {
		if seen[k] != v {
			return false
		}
	}
	return true
}
