/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package domain

import "time"

type LinkDirection string

const (
	Inward  LinkDirection = "inward"
	Outward LinkDirection = "outward"
)

// RawIssue is one issue as handed over by the fetch layer.
type RawIssue struct {
	Key             string         `json:"key"`
	Summary         string         `json:"summary"`
	IssueType       string         `json:"issue_type"`
	Created         time.Time      `json:"created"`
	Status          string         `json:"status"`
	ParentKey       string         `json:"parent_key,omitempty"`
	Links           []Link         `json:"links"`
	History         []HistoryEntry `json:"history"`
	BlockerType     string         `json:"blocker_type,omitempty"`
	BlockerLeadTime string         `json:"blocker_lead_time,omitempty"`
}

type Link struct {
	Type      string        `json:"type"`
	Direction LinkDirection `json:"direction"`
	Issue     LinkedIssue   `json:"issue"`
}

// LinkedIssue holds what the link descriptor itself knows about the other side.
type LinkedIssue struct {
	Key     string    `json:"key"`
	Summary string    `json:"summary"`
	Status  string    `json:"status,omitempty"`
	Created time.Time `json:"created,omitempty"`
}

type HistoryEntry struct {
	Author  string        `json:"author"`
	Created time.Time     `json:"created"`
	Items   []FieldChange `json:"items"`
}

type FieldChange struct {
	Field   string `json:"field"`
	FieldID string `json:"field_id,omitempty"`
	From    string `json:"from"`
	To      string `json:"to"`
}

type StatusMovement struct {
	From string    `json:"from"`
	To   string    `json:"to"`
	At   time.Time `json:"at"`
}

type FlagAction string

const (
	FlagAdded   FlagAction = "added"
	FlagRemoved FlagAction = "removed"
)

type FlagEvent struct {
	Action  FlagAction `json:"action"`
	Actor   string     `json:"actor"`
	At      time.Time  `json:"at"`
	Comment string     `json:"comment"`
}

// StatusDuration is one status-occupancy interval. The last interval of an issue
// ends at the evaluation instant and is marked Current.
type StatusDuration struct {
	Status  string    `json:"status"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Current bool      `json:"current"`
	Hours   float64   `json:"hours"`
	Human   string    `json:"human"`
}

type BlockerSource string

const (
	SourceLink BlockerSource = "link"
	SourceFlag BlockerSource = "flag"
)

// BlockerPeriod is an interval during which an issue was impeded. End is nil
// while the blocker is still active.
type BlockerPeriod struct {
	Source      BlockerSource `json:"source"`
	Key         string        `json:"key,omitempty"`
	Summary     string        `json:"summary,omitempty"`
	Actor       string        `json:"actor,omitempty"`
	Comment     string        `json:"comment,omitempty"`
	BlockerType string        `json:"blocker_type,omitempty"`
	LeadTime    string        `json:"lead_time,omitempty"`
	Start       time.Time     `json:"start"`
	End         *time.Time    `json:"end"`
}

func (p BlockerPeriod) Active() bool { return p.End == nil }

type ProcessedIssue struct {
	RawIssue
	StatusMovements []StatusMovement `json:"status_movements"`
	FlagEvents      []FlagEvent      `json:"flag_events"`
	StatusDurations []StatusDuration `json:"status_durations"`
	TotalHours      float64          `json:"total_hours"`
	TotalHuman      string           `json:"total_human"`
	IsCompleted     bool             `json:"is_completed"`
	CompletedAt     *time.Time       `json:"completed_at"`
	IsBlocked       bool             `json:"is_blocked"`
	BlockerHistory  []BlockerPeriod  `json:"blocker_history"`
	CurrentBlockers []BlockerPeriod  `json:"current_blockers"`
}

// HierarchyNode references other nodes by index into Forest.Nodes.
type HierarchyNode struct {
	Key       string `json:"key"`
	Issue     int    `json:"issue"`
	Parent    int    `json:"parent"`
	ParentKey string `json:"parent_key,omitempty"`
	Children  []int  `json:"children"`
	Depth     int    `json:"depth"`
}

// RejectedEdge records a parent/child relation dropped during forest construction.
type RejectedEdge struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
	Origin string `json:"origin"`
	Reason string `json:"reason"`
}

type Forest struct {
	Nodes    []HierarchyNode `json:"nodes"`
	Roots    []int           `json:"roots"`
	Rejected []RejectedEdge  `json:"rejected,omitempty"`

	index map[string]int
}

// NewForest indexes nodes by key. The first node with a given key wins.
func NewForest(nodes []HierarchyNode, roots []int, rejected []RejectedEdge) Forest {
	index := make(map[string]int, len(nodes))
	for i := range nodes {
		if _, dup := index[nodes[i].Key]; !dup {
			index[nodes[i].Key] = i
		}
	}
	return Forest{Nodes: nodes, Roots: roots, Rejected: rejected, index: index}
}

// Lookup returns the node index for key. Forests not built with NewForest
// (literals, decoded JSON) fall back to a linear scan.
func (f Forest) Lookup(key string) (int, bool) {
	if f.index != nil {
		i, ok := f.index[key]
		if !ok {
			return -1, false
		}
		return i, true
	}
	for i := range f.Nodes {
		if f.Nodes[i].Key == key {
			return i, true
		}
	}
	return -1, false
}

type Phase struct {
	Status string    `json:"status"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

type GanttTask struct {
	ID       int     `json:"id"`
	Key      string  `json:"key"`
	Name     string  `json:"name"`
	ParentID *int    `json:"parent_id,omitempty"`
	ChildIDs []int   `json:"child_ids"`
	IsParent bool    `json:"is_parent"`
	Phases   []Phase `json:"phases"`
}
