/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package blockers

import (
	"sort"
	"strings"
	"time"

	"github.com/anvarKhakimov/jira-gantt-app/internal/domain"
	"github.com/anvarKhakimov/jira-gantt-app/internal/timeline"
	"github.com/rs/zerolog"
)

// Result is the blocker state of one issue at the evaluation instant.
type Result struct {
	IsBlocked bool
	History   []domain.BlockerPeriod
	Current   []domain.BlockerPeriod
}

// Analyzer derives blocker periods from inward blocking links and impediment
// flags. Flags are matched against link blockers by calendar day in loc.
type Analyzer struct {
	vocab domain.Vocabulary
	loc   *time.Location
	log   zerolog.Logger
}

func NewAnalyzer(vocab domain.Vocabulary, loc *time.Location, log zerolog.Logger) *Analyzer {
	if loc == nil {
		loc = time.UTC
	}
	return &Analyzer{vocab: vocab, loc: loc, log: log}
}

// Analyze computes the blocker history of issue. set is the working set used to
// resolve blocking issues by key. Events stamped after now are ignored.
func (a *Analyzer) Analyze(issue domain.RawIssue, flags []domain.FlagEvent, set map[string]domain.RawIssue, now time.Time) Result {
	_, flags = timeline.Until(nil, flags, now)
	visited := map[string]bool{issue.Key: true}
	links := make([]domain.BlockerPeriod, 0)
	for _, l := range issue.Links {
		if l.Direction != domain.Inward || !domain.MatchLabel(l.Type, a.vocab.BlocksLinkTypes) {
			continue
		}
		key := strings.TrimSpace(l.Issue.Key)
		if key == "" {
			continue
		}
		if visited[key] {
			a.log.Debug().Str("key", issue.Key).Str("blocker", key).Msg("blocker already visited, skipping")
			continue
		}
		visited[key] = true
		links = append(links, a.linkPeriod(issue, l, set, now))
	}

	linkActive := false
	for _, p := range links {
		if p.Active() {
			linkActive = true
			break
		}
	}

	history := a.flagPeriods(flags, links, linkActive)
	history = append(history, links...)
	sort.SliceStable(history, func(i, j int) bool { return history[i].Start.Before(history[j].Start) })

	res := Result{History: history, Current: []domain.BlockerPeriod{}}
	for _, p := range history {
		if p.Active() {
			res.Current = append(res.Current, p)
		}
	}
	res.IsBlocked = len(res.Current) > 0
	return res
}

func (a *Analyzer) linkPeriod(issue domain.RawIssue, l domain.Link, set map[string]domain.RawIssue, now time.Time) domain.BlockerPeriod {
	p := domain.BlockerPeriod{
		Source:      domain.SourceLink,
		Key:         l.Issue.Key,
		Summary:     l.Issue.Summary,
		BlockerType: a.vocab.Placeholder,
		LeadTime:    a.vocab.Placeholder,
	}
	blocker, ok := set[l.Issue.Key]
	if !ok {
		p.Start = l.Issue.Created
		if p.Start.IsZero() {
			p.Start = issue.Created
		}
		if p.Summary == "" {
			p.Summary = a.vocab.Untitled
		}
		a.log.Debug().Str("key", issue.Key).Str("blocker", l.Issue.Key).Msg("blocking issue not in working set")
		return p
	}
	if p.Summary == "" {
		p.Summary = blocker.Summary
	}
	if p.Summary == "" {
		p.Summary = a.vocab.Untitled
	}
	if v := strings.TrimSpace(blocker.BlockerType); v != "" {
		p.BlockerType = v
	}
	if v := strings.TrimSpace(blocker.BlockerLeadTime); v != "" {
		p.LeadTime = v
	}

	moves, _ := timeline.Extract(blocker.History, a.vocab)
	moves, _ = timeline.Until(moves, nil, now)
	start, end, found := a.blockedSpan(timeline.Durations(moves, blocker.Created, now))
	if !found {
		p.Start = blocker.Created
		return p
	}
	p.Start, p.End = start, end
	return p
}

// blockedSpan finds the first Blocked interval and the first Unblocked interval
// that follows it.
func (a *Analyzer) blockedSpan(ds []domain.StatusDuration) (time.Time, *time.Time, bool) {
	for i, d := range ds {
		if !domain.MatchLabel(d.Status, a.vocab.BlockedStatuses) {
			continue
		}
		for _, next := range ds[i+1:] {
			if domain.MatchLabel(next.Status, a.vocab.UnblockedStatuses) {
				end := next.Start
				return d.Start, &end, true
			}
		}
		return d.Start, nil, true
	}
	return time.Time{}, nil, false
}

func (a *Analyzer) flagPeriods(flags []domain.FlagEvent, links []domain.BlockerPeriod, linkActive bool) []domain.BlockerPeriod {
	out := make([]domain.BlockerPeriod, 0)
	var open *domain.BlockerPeriod
	for _, f := range flags {
		if !domain.MatchLabel(f.Comment, a.vocab.ImpedimentMarkers) {
			continue
		}
		switch f.Action {
		case domain.FlagAdded:
			if a.sameDayAsLink(f.At, links) {
				continue
			}
			open = &domain.BlockerPeriod{Source: domain.SourceFlag, Actor: f.Actor, Comment: f.Comment, Start: f.At}
		case domain.FlagRemoved:
			if open == nil {
				continue
			}
			end := f.At
			open.End = &end
			out = append(out, *open)
			open = nil
		}
	}
	if open != nil && !linkActive {
		out = append(out, *open)
	}
	return out
}

func (a *Analyzer) sameDayAsLink(at time.Time, links []domain.BlockerPeriod) bool {
	for _, p := range links {
		if SameDay(p.Start, at, a.loc) {
			return true
		}
	}
	return false
}

// SameDay reports whether x and y fall on the same calendar date in loc.
func SameDay(x, y time.Time, loc *time.Location) bool {
	x, y = x.In(loc), y.In(loc)
	return x.Year() == y.Year() && x.YearDay() == y.YearDay()
}
