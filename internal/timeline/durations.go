/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package timeline

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/anvarKhakimov/jira-gantt-app/internal/domain"
)

// CreatedStatus names the first interval of an issue that never changed status.
const CreatedStatus = "Created"

// Until drops movements and flag events stamped after now, keeping the order
// of the rest.
func Until(moves []domain.StatusMovement, flags []domain.FlagEvent, now time.Time) ([]domain.StatusMovement, []domain.FlagEvent) {
	keptMoves := make([]domain.StatusMovement, 0, len(moves))
	for _, m := range moves {
		if !m.At.After(now) {
			keptMoves = append(keptMoves, m)
		}
	}
	keptFlags := make([]domain.FlagEvent, 0, len(flags))
	for _, f := range flags {
		if !f.At.After(now) {
			keptFlags = append(keptFlags, f)
		}
	}
	return keptMoves, keptFlags
}

// Durations turns ordered status movements into contiguous occupancy intervals
// from created up to now. Boundaries are clamped into [previous boundary, now]
// so no interval runs backwards or past the evaluation instant.
func Durations(moves []domain.StatusMovement, created, now time.Time) []domain.StatusDuration {
	first := CreatedStatus
	if len(moves) > 0 {
		first = moves[0].From
	}
	out := make([]domain.StatusDuration, 0, len(moves)+1)
	start := created
	if start.After(now) {
		start = now
	}
	status := first
	for _, m := range moves {
		end := m.At
		if end.After(now) {
			end = now
		}
		if end.Before(start) {
			end = start
		}
		out = append(out, interval(status, start, end, false))
		start, status = end, m.To
	}
	end := now
	if end.Before(start) {
		end = start
	}
	out = append(out, interval(status, start, end, true))
	return out
}

func interval(status string, start, end time.Time, current bool) domain.StatusDuration {
	h := Round2(end.Sub(start).Hours())
	return domain.StatusDuration{Status: status, Start: start, End: end, Current: current, Hours: h, Human: FormatHours(h)}
}

// TotalHours sums interval lengths.
func TotalHours(ds []domain.StatusDuration) float64 {
	var sum float64
	for _, d := range ds {
		sum += d.Hours
	}
	return Round2(sum)
}

func Round2(h float64) float64 { return math.Round(h*100) / 100 }

// FormatHours renders hours as "2w 3d 1h 5m", omitting zero parts.
func FormatHours(h float64) string {
	if h <= 0 {
		return "0m"
	}
	mins := int64(math.Round(h * 60))
	const (
		hour = 60
		day  = 24 * hour
		week = 7 * day
	)
	parts := make([]string, 0, 4)
	for _, u := range []struct {
		size   int64
		suffix string
	}{{week, "w"}, {day, "d"}, {hour, "h"}, {1, "m"}} {
		if n := mins / u.size; n > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", n, u.suffix))
			mins -= n * u.size
		}
	}
	if len(parts) == 0 {
		return "0m"
	}
	return strings.Join(parts, " ")
}

// Completion reports whether status is final and, if so, when the issue last
// moved into a final status.
func Completion(status string, moves []domain.StatusMovement, vocab domain.Vocabulary) (bool, *time.Time) {
	if !domain.MatchLabel(status, vocab.FinalStatuses) {
		return false, nil
	}
	var last *time.Time
	for i := range moves {
		if !domain.MatchLabel(moves[i].To, vocab.FinalStatuses) {
			continue
		}
		if last == nil || moves[i].At.After(*last) {
			t := moves[i].At
			last = &t
		}
	}
	return true, last
}
