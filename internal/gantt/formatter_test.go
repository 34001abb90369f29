package gantt

import (
	"testing"
	"time"

	"github.com/anvarKhakimov/jira-gantt-app/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func processed(key, summary string, statuses ...string) domain.ProcessedIssue {
	iss := domain.ProcessedIssue{RawIssue: domain.RawIssue{Key: key, Summary: summary}}
	at := t0
	for _, s := range statuses {
		iss.StatusDurations = append(iss.StatusDurations, domain.StatusDuration{Status: s, Start: at, End: at.Add(time.Hour)})
		at = at.Add(time.Hour)
	}
	return iss
}

// forest: R(0) -> A(1) -> C(3); R -> B(2); S(4) alone.
func fixture() ([]domain.ProcessedIssue, domain.Forest) {
	issues := []domain.ProcessedIssue{
		processed("R-1", "Root", "Backlog", "In Progress"),
		processed("A-1", "Alpha", "Backlog", "Code Review"),
		processed("B-1", "", "Done"),
		processed("C-1", "Gamma", "In  Progress"),
		processed("S-1", "Solo", "Backlog"),
	}
	forest := domain.Forest{
		Nodes: []domain.HierarchyNode{
			{Key: "R-1", Issue: 0, Parent: -1, Children: []int{1, 2}},
			{Key: "A-1", Issue: 1, Parent: 0, Children: []int{3}, Depth: 1},
			{Key: "B-1", Issue: 2, Parent: 0, Children: []int{}, Depth: 1},
			{Key: "C-1", Issue: 3, Parent: 1, Children: []int{}, Depth: 2},
			{Key: "S-1", Issue: 4, Parent: -1, Children: []int{}},
		},
		Roots: []int{0, 4},
	}
	return issues, forest
}

func TestFormat_DepthFirstIDs(t *testing.T) {
	tasks := Format(fixture())

	require.Len(t, tasks, 5)
	keys := make([]string, len(tasks))
	for i, task := range tasks {
		keys[i] = task.Key
		assert.Equal(t, i+1, task.ID)
	}
	assert.Equal(t, []string{"R-1", "A-1", "C-1", "B-1", "S-1"}, keys)

	assert.Nil(t, tasks[0].ParentID)
	assert.Equal(t, []int{2, 4}, tasks[0].ChildIDs)
	assert.True(t, tasks[0].IsParent)
	assert.Equal(t, []int{3}, tasks[1].ChildIDs)
	assert.False(t, tasks[2].IsParent)
	assert.Equal(t, "B-1", tasks[3].Name)
	assert.Empty(t, tasks[4].ChildIDs)
}

func TestFormat_ParentChildConsistency(t *testing.T) {
	tasks := Format(fixture())
	byID := map[int]domain.GanttTask{}
	for _, task := range tasks {
		_, dup := byID[task.ID]
		require.False(t, dup, "duplicate id %d", task.ID)
		byID[task.ID] = task
	}
	for _, task := range tasks {
		for _, c := range task.ChildIDs {
			child, ok := byID[c]
			require.True(t, ok)
			require.NotNil(t, child.ParentID)
			assert.Equal(t, task.ID, *child.ParentID)
		}
	}
}

func TestFormat_PhasesNormalized(t *testing.T) {
	tasks := Format(fixture())
	require.Len(t, tasks[1].Phases, 2)
	assert.Equal(t, "code_review", tasks[1].Phases[1].Status)
	assert.Equal(t, "in_progress", tasks[2].Phases[0].Status)
	assert.Equal(t, t0.Add(time.Hour), tasks[1].Phases[1].Start)
}

func TestNormalizeStatus(t *testing.T) {
	tests := map[string]string{
		"In Progress":        "in_progress",
		"  Ready \t for QA ": "ready_for_qa",
		"Блокировка снята":   "блокировка_снята",
		"done":               "done",
		"":                   "",
	}
	for in, want := range tests {
		got := NormalizeStatus(in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, got, NormalizeStatus(got), "idempotent for %q", in)
	}
}

func TestFilterByStatuses(t *testing.T) {
	tasks := Format(fixture())

	got := FilterByStatuses(tasks, []string{"Backlog"})

	keys := []string{}
	for _, task := range got {
		keys = append(keys, task.Key)
	}
	// C-1 and B-1 lose every phase and are not parents.
	assert.Equal(t, []string{"R-1", "A-1", "S-1"}, keys)
	assert.Equal(t, []int{2}, got[0].ChildIDs)
	assert.Empty(t, got[1].ChildIDs)
	require.Len(t, got[1].Phases, 1)
	assert.Equal(t, "backlog", got[1].Phases[0].Status)

	assert.Len(t, tasks[0].ChildIDs, 2, "input must not be modified")
	assert.Equal(t, tasks, FilterByStatuses(tasks, nil))
}
