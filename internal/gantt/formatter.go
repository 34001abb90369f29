/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package gantt

import (
	"strings"

	"github.com/anvarKhakimov/jira-gantt-app/internal/domain"
)

// Format flattens the forest into tasks numbered from 1 in depth-first order.
// Node indexes in forest refer to issues.
func Format(issues []domain.ProcessedIssue, forest domain.Forest) []domain.GanttTask {
	tasks := make([]domain.GanttTask, 0, len(forest.Nodes))
	visited := make([]bool, len(forest.Nodes))

	var walk func(n int, parentID int)
	walk = func(n int, parentID int) {
		if visited[n] {
			return
		}
		visited[n] = true
		node := forest.Nodes[n]
		id := len(tasks) + 1
		task := newTask(id, issues[node.Issue], len(node.Children) > 0)
		if parentID > 0 {
			pid := parentID
			task.ParentID = &pid
			tasks[parentID-1].ChildIDs = append(tasks[parentID-1].ChildIDs, id)
		}
		tasks = append(tasks, task)
		for _, c := range node.Children {
			walk(c, id)
		}
	}
	for _, r := range forest.Roots {
		walk(r, 0)
	}
	return tasks
}

func newTask(id int, iss domain.ProcessedIssue, isParent bool) domain.GanttTask {
	name := iss.Summary
	if strings.TrimSpace(name) == "" {
		name = iss.Key
	}
	phases := make([]domain.Phase, 0, len(iss.StatusDurations))
	for _, d := range iss.StatusDurations {
		phases = append(phases, domain.Phase{Status: NormalizeStatus(d.Status), Start: d.Start, End: d.End})
	}
	return domain.GanttTask{ID: id, Key: iss.Key, Name: name, ChildIDs: []int{}, IsParent: isParent, Phases: phases}
}

// NormalizeStatus case-folds a status label and joins its words with "_".
// Applying it twice gives the same result.
func NormalizeStatus(s string) string {
	return strings.Join(strings.Fields(domain.FoldLabel(s)), "_")
}

// FilterByStatuses keeps only phases whose status is selected. Tasks left
// without phases are dropped unless they are parents. With no selection the
// tasks are returned unchanged.
func FilterByStatuses(tasks []domain.GanttTask, statuses []string) []domain.GanttTask {
	if len(tasks) == 0 || len(statuses) == 0 {
		return tasks
	}
	want := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		want[NormalizeStatus(s)] = true
	}

	kept := make([]domain.GanttTask, 0, len(tasks))
	keptIDs := make(map[int]bool, len(tasks))
	for _, t := range tasks {
		if !(t.IsParent && len(t.Phases) == 0) {
			phases := make([]domain.Phase, 0, len(t.Phases))
			for _, p := range t.Phases {
				if want[NormalizeStatus(p.Status)] {
					phases = append(phases, p)
				}
			}
			t.Phases = phases
		}
		if t.IsParent || len(t.Phases) > 0 {
			kept = append(kept, t)
			keptIDs[t.ID] = true
		}
	}
	for i := range kept {
		children := make([]int, 0, len(kept[i].ChildIDs))
		for _, c := range kept[i].ChildIDs {
			if keptIDs[c] {
				children = append(children, c)
			}
		}
		kept[i].ChildIDs = children
	}
	return kept
}
