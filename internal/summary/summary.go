/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package summary

import (
	"github.com/anvarKhakimov/jira-gantt-app/internal/domain"
)

type Summary struct {
	MainIssue       string         `json:"main_issue"`
	TotalIssues     int            `json:"total_issues"`
	CompletedIssues int            `json:"completed_issues"`
	BlockedIssues   int            `json:"blocked_issues"`
	CurrentBlockers int            `json:"current_blockers"`
	BlockerPeriods  int            `json:"blocker_periods"`
	ByStatus        map[string]int `json:"by_status"`
	Roots           []RootSummary  `json:"roots"`
	RejectedEdges   int            `json:"rejected_edges"`
}

type RootSummary struct {
	Key      string   `json:"key"`
	Summary  string   `json:"summary"`
	Status   string   `json:"status"`
	Children []string `json:"children"`
}

// Build aggregates counts over a processed issue set and its forest.
func Build(issues []domain.ProcessedIssue, forest domain.Forest, mainIssue string) Summary {
	s := Summary{MainIssue: mainIssue, TotalIssues: len(issues), ByStatus: map[string]int{}, Roots: []RootSummary{}}
	for _, iss := range issues {
		if iss.IsCompleted {
			s.CompletedIssues++
		}
		if iss.IsBlocked {
			s.BlockedIssues++
		}
		s.CurrentBlockers += len(iss.CurrentBlockers)
		s.BlockerPeriods += len(iss.BlockerHistory)
		s.ByStatus[iss.Status]++
	}
	for _, r := range forest.Roots {
		n := forest.Nodes[r]
		iss := issues[n.Issue]
		rs := RootSummary{Key: iss.Key, Summary: iss.Summary, Status: iss.Status, Children: make([]string, 0, len(n.Children))}
		for _, c := range n.Children {
			rs.Children = append(rs.Children, forest.Nodes[c].Key)
		}
		s.Roots = append(s.Roots, rs)
	}
	s.RejectedEdges = len(forest.Rejected)
	return s
}
