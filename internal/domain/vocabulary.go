/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// Vocabulary lists the tracker labels the pipeline recognises. Trackers are
// configured in different languages, so every set may hold several spellings.
type Vocabulary struct {
	StatusFields      []string `yaml:"status_fields"`
	FlagFields        []string `yaml:"flag_fields"`
	ImpedimentMarkers []string `yaml:"impediment_markers"`
	BlockedStatuses   []string `yaml:"blocked_statuses"`
	UnblockedStatuses []string `yaml:"unblocked_statuses"`
	BlocksLinkTypes   []string `yaml:"blocks_link_types"`
	InclusionLinks    []string `yaml:"inclusion_links"`
	PartOfLinks       []string `yaml:"part_of_links"`
	FinalStatuses     []string `yaml:"final_statuses"`
	EpicTypes         []string `yaml:"epic_types"`
	Placeholder       string   `yaml:"placeholder"`
	Untitled          string   `yaml:"untitled"`
}

func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		StatusFields:      []string{"status"},
		FlagFields:        []string{"Flagged"},
		ImpedimentMarkers: []string{"Impediment"},
		BlockedStatuses:   []string{"Blocked", "Заблокировано"},
		UnblockedStatuses: []string{"Unblocked", "Блокировка снята"},
		BlocksLinkTypes:   []string{"Blocks"},
		InclusionLinks:    []string{"consists of", "includes", "Inclusion", "включает", "состоит из"},
		PartOfLinks:       []string{"is part of", "является частью", "входит в состав"},
		FinalStatuses:     []string{"Done", "Closed", "Resolved"},
		EpicTypes:         []string{"Epic"},
		Placeholder:       "Not specified",
		Untitled:          "Untitled",
	}
}

// Merge fills empty fields of v from def.
func (v Vocabulary) Merge(def Vocabulary) Vocabulary {
	pick := func(a, b []string) []string {
		if len(a) > 0 {
			return a
		}
		return b
	}
	out := Vocabulary{
		StatusFields:      pick(v.StatusFields, def.StatusFields),
		FlagFields:        pick(v.FlagFields, def.FlagFields),
		ImpedimentMarkers: pick(v.ImpedimentMarkers, def.ImpedimentMarkers),
		BlockedStatuses:   pick(v.BlockedStatuses, def.BlockedStatuses),
		UnblockedStatuses: pick(v.UnblockedStatuses, def.UnblockedStatuses),
		BlocksLinkTypes:   pick(v.BlocksLinkTypes, def.BlocksLinkTypes),
		InclusionLinks:    pick(v.InclusionLinks, def.InclusionLinks),
		PartOfLinks:       pick(v.PartOfLinks, def.PartOfLinks),
		FinalStatuses:     pick(v.FinalStatuses, def.FinalStatuses),
		EpicTypes:         pick(v.EpicTypes, def.EpicTypes),
		Placeholder:       v.Placeholder,
		Untitled:          v.Untitled,
	}
	if out.Placeholder == "" {
		out.Placeholder = def.Placeholder
	}
	if out.Untitled == "" {
		out.Untitled = def.Untitled
	}
	return out
}

// FoldLabel case-folds and trims a label for comparison.
func FoldLabel(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// MatchLabel reports whether label equals any of set after folding.
func MatchLabel(label string, set []string) bool {
	l := FoldLabel(label)
	if l == "" {
		return false
	}
	for _, s := range set {
		if FoldLabel(s) == l {
			return true
		}
	}
	return false
}
