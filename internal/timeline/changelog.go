/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package timeline

import (
	"strings"

	"github.com/anvarKhakimov/jira-gantt-app/internal/domain"
)

// Extract walks an issue's change history and returns its status movements and
// impediment flag events. History entries are taken in the order given.
func Extract(history []domain.HistoryEntry, vocab domain.Vocabulary) ([]domain.StatusMovement, []domain.FlagEvent) {
	moves := []domain.StatusMovement{}
	flags := []domain.FlagEvent{}
	for _, h := range history {
		for _, it := range h.Items {
			switch {
			case fieldIs(it, vocab.StatusFields):
				moves = append(moves, domain.StatusMovement{From: it.From, To: it.To, At: h.Created})
			case fieldIs(it, vocab.FlagFields):
				if ev, ok := flagEvent(it, h, vocab); ok {
					flags = append(flags, ev)
				}
			}
		}
	}
	return moves, flags
}

func fieldIs(it domain.FieldChange, set []string) bool {
	return domain.MatchLabel(it.Field, set) || domain.MatchLabel(it.FieldID, set)
}

func flagEvent(it domain.FieldChange, h domain.HistoryEntry, vocab domain.Vocabulary) (domain.FlagEvent, bool) {
	ev := domain.FlagEvent{Actor: h.Author, At: h.Created}
	switch {
	case domain.MatchLabel(it.To, vocab.ImpedimentMarkers):
		ev.Action = domain.FlagAdded
		ev.Comment = it.To
	case domain.MatchLabel(it.From, vocab.ImpedimentMarkers) && strings.TrimSpace(it.To) == "":
		ev.Action = domain.FlagRemoved
		ev.Comment = it.From
	default:
		return ev, false
	}
	return ev, true
}
