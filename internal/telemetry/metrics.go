package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shaiso/Tenders/internal/domain"
)

// Исходы запуска синхронизации (label outcome).
const (
	OutcomeSuccess   = "success"
	OutcomeEmpty     = "empty"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

var (
	syncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenders_sync_runs_total",
		Help: "Total sync runs by outcome",
	}, []string{"outcome"})

	syncDocuments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenders_sync_documents_total",
		Help: "Tender records processed by sync, by result",
	}, []string{"result"})

	syncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tenders_sync_duration_seconds",
		Help:    "Duration of sync runs",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tenders_sync_stage_duration_seconds",
		Help:    "Duration of sync stages (fetch, transform, index, log)",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenders_http_requests_total",
		Help: "Total HTTP requests handled, by binary",
	}, []string{"service"})
)

// ObserveSync записывает метрики завершённого запуска.
func ObserveSync(outcome string, stats *domain.SyncStats, elapsed time.Duration) {
	syncRuns.WithLabelValues(outcome).Inc()
	syncDuration.Observe(elapsed.Seconds())

	if stats == nil {
		return
	}
	syncDocuments.WithLabelValues("added").Add(float64(stats.Added))
	syncDocuments.WithLabelValues("updated").Add(float64(stats.Updated))
	syncDocuments.WithLabelValues("failed").Add(float64(stats.Failed))
	syncDocuments.WithLabelValues("duplicate").Add(float64(stats.Duplicates))
}

// ObserveStage записывает длительность одного этапа синхронизации.
func ObserveStage(stage string, started time.Time) {
	stageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}

// CountRequest увеличивает счётчик HTTP-запросов сервиса.
func CountRequest(service string) {
	httpRequests.WithLabelValues(service).Inc()
}
