package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gematik/app-AfoReporter/aggregate"
	"github.com/gematik/app-AfoReporter/evidence"
)

func sampleSummary() *aggregate.Summary {
	s := aggregate.NewSummary()
	s.Add(evidence.StatusPassed, false, 2)
	s.Add(evidence.StatusFailed, false, 3)
	s.Add(evidence.StatusUnknown, false, 0)
	s.Add(evidence.StatusPassed, true, 0)
	s.TestResults = 6
	s.Unreferenced = 1
	s.Orphans = 2
	return s
}

func TestObserve(t *testing.T) {
	c := NewCollector()
	c.Observe(sampleSummary())

	assert.Equal(t, 1.0, testutil.ToFloat64(c.requirements.WithLabelValues("passed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requirements.WithLabelValues("failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.requirements.WithLabelValues("error")))
	// the deleted requirement is not counted as unknown
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requirements.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.deleted))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.referenced))
	assert.Equal(t, 6.0, testutil.ToFloat64(c.testResults))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.unreferenced))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.orphans))
}

func TestObserveReplacesPreviousRun(t *testing.T) {
	c := NewCollector()
	c.Observe(sampleSummary())
	c.Observe(aggregate.NewSummary())

	assert.Equal(t, 0.0, testutil.ToFloat64(c.requirements.WithLabelValues("passed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.orphans))
}

func TestWriteTextfile(t *testing.T) {
	c := NewCollector()
	c.Observe(sampleSummary())

	path := filepath.Join(t.TempDir(), "textfile", "aforeport.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `aforeport_requirements{status="passed"} 1`)
	assert.Contains(t, out, "aforeport_orphaned_links 2")
	assert.Contains(t, out, "# TYPE aforeport_test_results gauge")

	lines := 0
	for _, l := range strings.Split(out, "\n") {
		if strings.HasPrefix(l, `aforeport_requirements{`) {
			lines++
		}
	}
	assert.Equal(t, len(evidence.Statuses), lines)
}
