package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserve(t *testing.T) {
	before := testutil.ToFloat64(runsTotal.WithLabelValues("test"))
	beforeIssues := testutil.ToFloat64(issuesProcessed)

	Observe(Run{Source: "test", Duration: 20 * time.Millisecond, Issues: 4, Duplicates: 1, RejectedEdges: 2, BlockedIssues: 3})

	assert.Equal(t, before+1, testutil.ToFloat64(runsTotal.WithLabelValues("test")))
	assert.Equal(t, beforeIssues+4, testutil.ToFloat64(issuesProcessed))
	assert.Equal(t, float64(3), testutil.ToFloat64(blockedIssues))
}
