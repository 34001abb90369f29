/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anvarKhakimov/jira-gantt-app/internal/blockers"
	"github.com/anvarKhakimov/jira-gantt-app/internal/config"
	"github.com/anvarKhakimov/jira-gantt-app/internal/domain"
	"github.com/anvarKhakimov/jira-gantt-app/internal/gantt"
	"github.com/anvarKhakimov/jira-gantt-app/internal/hierarchy"
	"github.com/anvarKhakimov/jira-gantt-app/internal/metrics"
	"github.com/anvarKhakimov/jira-gantt-app/internal/summary"
	"github.com/anvarKhakimov/jira-gantt-app/internal/timeline"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options tune a single run. An empty RunID gets a fresh one.
type Options struct {
	MainIssue string
	Statuses  []string
	Source    string
	RunID     string
}

type Result struct {
	RunID   string                  `json:"run_id"`
	Now     time.Time               `json:"now"`
	Issues  []domain.ProcessedIssue `json:"issues"`
	Forest  domain.Forest           `json:"forest"`
	Tasks   []domain.GanttTask      `json:"tasks"`
	Summary summary.Summary         `json:"summary"`
}

// Pipeline turns raw issues into processed issues, a forest and Gantt tasks.
// It never reads the wall clock; every run is evaluated at the given now.
type Pipeline struct {
	vocab    domain.Vocabulary
	analyzer *blockers.Analyzer
	workers  int
	log      zerolog.Logger
}

func NewPipeline(cfg config.Config, log zerolog.Logger) *Pipeline {
	vocab := cfg.Vocabulary.Merge(domain.DefaultVocabulary())
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	return &Pipeline{vocab: vocab, analyzer: blockers.NewAnalyzer(vocab, cfg.Location, log), workers: workers, log: log}
}

func (p *Pipeline) Run(raw []domain.RawIssue, now time.Time, opts Options) Result {
	started := time.Now()
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := p.log.With().Str("run_id", runID).Logger()

	issues, dups := p.sanitize(raw, now, log)
	set := make(map[string]domain.RawIssue, len(issues))
	for _, iss := range issues {
		set[iss.Key] = iss
	}

	processed := make([]domain.ProcessedIssue, len(issues))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				processed[i] = p.process(issues[i], set, now)
			}
		}()
	}
	for i := range issues {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	forest := hierarchy.Build(processed, p.vocab, log)
	main := hierarchy.MainIssue(processed, opts.MainIssue, p.vocab)
	tasks := gantt.FilterByStatuses(gantt.Format(processed, forest), opts.Statuses)
	sum := summary.Build(processed, forest, main)

	source := opts.Source
	if source == "" {
		source = "payload"
	}
	metrics.Observe(metrics.Run{
		Source:        source,
		Duration:      time.Since(started),
		Issues:        len(processed),
		Duplicates:    dups,
		RejectedEdges: len(forest.Rejected),
		BlockedIssues: sum.BlockedIssues,
	})
	log.Info().Int("issues", len(processed)).Int("tasks", len(tasks)).Int("blocked", sum.BlockedIssues).
		Int("rejected_edges", len(forest.Rejected)).Str("main", main).Msg("timeline built")

	return Result{RunID: runID, Now: now, Issues: processed, Forest: forest, Tasks: tasks, Summary: sum}
}

func (p *Pipeline) process(iss domain.RawIssue, set map[string]domain.RawIssue, now time.Time) domain.ProcessedIssue {
	moves, flags := timeline.Extract(iss.History, p.vocab)
	moves, flags = timeline.Until(moves, flags, now)
	if strings.TrimSpace(iss.Status) == "" {
		if n := len(moves); n > 0 && moves[n-1].To != "" {
			iss.Status = moves[n-1].To
		} else {
			iss.Status = p.vocab.Placeholder
		}
	}
	ds := timeline.Durations(moves, iss.Created, now)
	total := timeline.TotalHours(ds)
	done, doneAt := timeline.Completion(iss.Status, moves, p.vocab)
	br := p.analyzer.Analyze(iss, flags, set, now)
	return domain.ProcessedIssue{
		RawIssue:        iss,
		StatusMovements: moves,
		FlagEvents:      flags,
		StatusDurations: ds,
		TotalHours:      total,
		TotalHuman:      timeline.FormatHours(total),
		IsCompleted:     done,
		CompletedAt:     doneAt,
		IsBlocked:       br.IsBlocked,
		BlockerHistory:  br.History,
		CurrentBlockers: br.Current,
	}
}

// sanitize fills placeholders, assigns keys to keyless issues and drops
// repeated keys (first occurrence wins). It returns the number dropped.
func (p *Pipeline) sanitize(raw []domain.RawIssue, now time.Time, log zerolog.Logger) ([]domain.RawIssue, int) {
	out := make([]domain.RawIssue, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	unknown, dups := 0, 0
	for _, iss := range raw {
		iss.Key = strings.TrimSpace(iss.Key)
		if iss.Key == "" {
			unknown++
			iss.Key = fmt.Sprintf("UNKNOWN-%d", unknown)
			log.Warn().Str("key", iss.Key).Msg("issue without key")
		}
		if seen[iss.Key] {
			dups++
			log.Warn().Str("key", iss.Key).Msg("duplicate issue key dropped")
			continue
		}
		seen[iss.Key] = true

		iss.Summary = sanitizeJiraText(iss.Summary)
		if iss.Summary == "" {
			iss.Summary = p.vocab.Untitled
		}
		if strings.TrimSpace(iss.BlockerType) == "" {
			iss.BlockerType = p.vocab.Placeholder
		}
		if strings.TrimSpace(iss.BlockerLeadTime) == "" {
			iss.BlockerLeadTime = p.vocab.Placeholder
		}
		iss.ParentKey = strings.TrimSpace(iss.ParentKey)
		if iss.Links == nil {
			iss.Links = []domain.Link{}
		}
		if iss.History == nil {
			iss.History = []domain.HistoryEntry{}
		}
		if iss.Created.IsZero() {
			iss.Created = earliest(iss.History, now)
			log.Debug().Str("key", iss.Key).Time("created", iss.Created).Msg("created date inferred")
		}
		out = append(out, iss)
	}
	return out, dups
}

func earliest(history []domain.HistoryEntry, now time.Time) time.Time {
	var first time.Time
	for _, h := range history {
		if h.Created.IsZero() {
			continue
		}
		if first.IsZero() || h.Created.Before(first) {
			first = h.Created
		}
	}
	if first.IsZero() {
		return now
	}
	return first
}

// sanitizeJiraText strips Jira wiki markup wrappers and flattens line breaks.
func sanitizeJiraText(s string) string {
	if s == "" {
		return s
	}
	replacers := []struct{ old, new string }{
		{"\r\n", " "}, {"\r", " "}, {"\n", " "},
		{"{code}", ""}, {"{noformat}", ""}, {"{panel}", ""}, {"{color}", ""},
	}
	out := s
	for _, r := range replacers {
		out = strings.ReplaceAll(out, r.old, r.new)
	}
	for {
		i := strings.Index(out, "{color:")
		if i == -1 {
			break
		}
		j := strings.Index(out[i:], "}")
		if j == -1 {
			break
		}
		out = out[:i] + out[i+j+1:]
	}
	return strings.Join(strings.Fields(out), " ")
}
