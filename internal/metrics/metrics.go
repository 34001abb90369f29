/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// runsTotal counts pipeline runs. Labels: source (payload, rebuild, cli)
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jira_gantt",
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Total timeline pipeline runs",
	}, []string{"source"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "jira_gantt",
		Subsystem: "pipeline",
		Name:      "run_duration_seconds",
		Help:      "Wall time of a timeline pipeline run",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"source"})

	issuesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "jira_gantt",
		Subsystem: "pipeline",
		Name:      "issues_processed_total",
		Help:      "Issues that went through the pipeline",
	})

	issuesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jira_gantt",
		Subsystem: "pipeline",
		Name:      "issues_dropped_total",
		Help:      "Input issues dropped before processing",
	}, []string{"reason"})

	rejectedEdges = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "jira_gantt",
		Subsystem: "hierarchy",
		Name:      "rejected_edges_total",
		Help:      "Parent/child edges rejected because they would form a cycle",
	})

	// blockedIssues is the number of blocked issues in the latest run.
	blockedIssues = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "jira_gantt",
		Subsystem: "blockers",
		Name:      "blocked_issues",
		Help:      "Currently blocked issues in the latest run",
	})
)

// Run is what a single pipeline run reports.
type Run struct {
	Source        string
	Duration      time.Duration
	Issues        int
	Duplicates    int
	RejectedEdges int
	BlockedIssues int
}

func Observe(r Run) {
	runsTotal.WithLabelValues(r.Source).Inc()
	runDuration.WithLabelValues(r.Source).Observe(r.Duration.Seconds())
	issuesProcessed.Add(float64(r.Issues))
	if r.Duplicates > 0 {
		issuesDropped.WithLabelValues("duplicate_key").Add(float64(r.Duplicates))
	}
	rejectedEdges.Add(float64(r.RejectedEdges))
	blockedIssues.Set(float64(r.BlockedIssues))
}
