package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"taskforce/internal/models"
)

type fakeCounts struct {
	counts map[models.Kind]int64
	err    error
}

func (f fakeCounts) PendingCounts(context.Context) (map[models.Kind]int64, error) {
	return f.counts, f.err
}

func TestPendingCollector(t *testing.T) {
	c := &PendingCollector{store: fakeCounts{counts: map[models.Kind]int64{
		models.KindProject: 3,
		models.KindGrant:   1,
	}}}

	expected := `
# HELP taskforce_pending_items Items waiting for moderation by kind
# TYPE taskforce_pending_items gauge
taskforce_pending_items{kind="grant"} 1
taskforce_pending_items{kind="organisation"} 0
taskforce_pending_items{kind="project"} 3
taskforce_pending_items{kind="watchdog"} 0
`
	assert.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))
}

func TestPendingCollector_ErrorEmitsNothing(t *testing.T) {
	c := &PendingCollector{store: fakeCounts{err: errors.New("db down")}}
	assert.Equal(t, 0, testutil.CollectAndCount(c))
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(moderationActions.WithLabelValues("project", "approve"))
	RecordModeration(models.KindProject, "approve")
	assert.Equal(t, before+1, testutil.ToFloat64(moderationActions.WithLabelValues("project", "approve")))

	before = testutil.ToFloat64(listFallbacks.WithLabelValues("grant", "markers"))
	RecordListFallback(models.KindGrant, "markers")
	assert.Equal(t, before+1, testutil.ToFloat64(listFallbacks.WithLabelValues("grant", "markers")))

	before = testutil.ToFloat64(submissions.WithLabelValues("watchdog"))
	RecordSubmission(models.KindWatchdog)
	assert.Equal(t, before+1, testutil.ToFloat64(submissions.WithLabelValues("watchdog")))
}

func TestInit_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	assert.NotPanics(t, func() {
		Init(fakeCounts{})
		Init(fakeCounts{})
	})
}
