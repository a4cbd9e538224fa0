package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"taskforce/internal/models"
)

var (
	pendingDesc = prometheus.NewDesc(
		"taskforce_pending_items",
		"Items waiting for moderation by kind",
		[]string{"kind"},
		nil,
	)

	moderationActions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taskforce_moderation_actions_total",
		Help: "Moderation actions applied by kind and action",
	}, []string{"kind", "action"})

	listFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taskforce_list_fallbacks_total",
		Help: "List and marker queries that degraded to an empty result",
	}, []string{"kind", "query"})

	submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taskforce_submissions_total",
		Help: "Accepted submissions by kind",
	}, []string{"kind"})
)

// PendingCounter reports the size of each review queue.
type PendingCounter interface {
	PendingCounts(ctx context.Context) (map[models.Kind]int64, error)
}

// PendingCollector is a custom Prometheus collector that reads the review
// queue sizes from the database on each scrape.
type PendingCollector struct {
	store PendingCounter
}

// Describe sends the metric descriptor to the channel.
func (c *PendingCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- pendingDesc
}

// Collect queries the pending counts and emits them as gauges.
func (c *PendingCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := c.store.PendingCounts(ctx)
	if err != nil {
		slog.Error("failed to collect pending item metrics", "error", err)
		return
	}
	for _, kind := range models.Kinds {
		ch <- prometheus.MustNewConstMetric(pendingDesc, prometheus.GaugeValue, float64(counts[kind]), string(kind))
	}
}

var initOnce sync.Once

// Init registers the collectors with the default registry. Must be called
// once at startup; later calls are ignored.
func Init(store PendingCounter) {
	initOnce.Do(func() {
		prometheus.MustRegister(moderationActions, listFallbacks, submissions)
		if store != nil {
			prometheus.MustRegister(&PendingCollector{store: store})
		}
	})
}

// RecordModeration counts an applied moderation action.
func RecordModeration(kind models.Kind, action string) {
	moderationActions.WithLabelValues(string(kind), action).Inc()
}

// RecordListFallback counts a list or marker query that returned nothing
// because the data service failed.
func RecordListFallback(kind models.Kind, query string) {
	listFallbacks.WithLabelValues(string(kind), query).Inc()
}

// RecordSubmission counts an accepted submission.
func RecordSubmission(kind models.Kind) {
	submissions.WithLabelValues(string(kind)).Inc()
}
