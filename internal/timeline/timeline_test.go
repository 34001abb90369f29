package timeline

import (
	"testing"
	"time"

	"github.com/anvarKhakimov/jira-gantt-app/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func hist(at time.Time, author string, items ...domain.FieldChange) domain.HistoryEntry {
	return domain.HistoryEntry{Author: author, Created: at, Items: items}
}

func TestExtract_StatusAndFlags(t *testing.T) {
	vocab := domain.DefaultVocabulary()
	history := []domain.HistoryEntry{
		hist(t0.Add(time.Hour), "ann",
			domain.FieldChange{Field: "status", From: "Backlog", To: "Development"},
			domain.FieldChange{Field: "assignee", From: "", To: "ann"},
		),
		hist(t0.Add(2*time.Hour), "bob", domain.FieldChange{Field: "Flagged", To: "Impediment"}),
		hist(t0.Add(3*time.Hour), "bob", domain.FieldChange{Field: "Flagged", From: "Impediment", To: ""}),
		hist(t0.Add(4*time.Hour), "bob", domain.FieldChange{Field: "Flagged", From: "", To: "Something else"}),
		hist(t0.Add(5*time.Hour), "eve", domain.FieldChange{FieldID: "STATUS", From: "Development", To: "Done"}),
	}

	moves, flags := Extract(history, vocab)

	require.Len(t, moves, 2)
	assert.Equal(t, domain.StatusMovement{From: "Backlog", To: "Development", At: t0.Add(time.Hour)}, moves[0])
	assert.Equal(t, "Done", moves[1].To)

	require.Len(t, flags, 2)
	assert.Equal(t, domain.FlagAdded, flags[0].Action)
	assert.Equal(t, "bob", flags[0].Actor)
	assert.Equal(t, "Impediment", flags[0].Comment)
	assert.Equal(t, domain.FlagRemoved, flags[1].Action)
	assert.Equal(t, "Impediment", flags[1].Comment)
}

func TestExtract_EmptyHistory(t *testing.T) {
	moves, flags := Extract(nil, domain.DefaultVocabulary())
	assert.Empty(t, moves)
	assert.Empty(t, flags)
	assert.NotNil(t, moves)
	assert.NotNil(t, flags)
}

func TestDurations_SingleTransition(t *testing.T) {
	moves := []domain.StatusMovement{{From: "Backlog", To: "Development", At: t0.Add(time.Hour)}}
	now := t0.Add(5 * time.Hour)

	got := Durations(moves, t0, now)

	require.Len(t, got, 2)
	assert.Equal(t, "Backlog", got[0].Status)
	assert.Equal(t, t0, got[0].Start)
	assert.Equal(t, t0.Add(time.Hour), got[0].End)
	assert.Equal(t, 1.0, got[0].Hours)
	assert.False(t, got[0].Current)

	assert.Equal(t, "Development", got[1].Status)
	assert.Equal(t, t0.Add(time.Hour), got[1].Start)
	assert.Equal(t, now, got[1].End)
	assert.Equal(t, 4.0, got[1].Hours)
	assert.True(t, got[1].Current)
}

func TestDurations_NoMovements(t *testing.T) {
	got := Durations(nil, t0, t0.Add(90*time.Minute))
	require.Len(t, got, 1)
	assert.Equal(t, CreatedStatus, got[0].Status)
	assert.Equal(t, 1.5, got[0].Hours)
	assert.Equal(t, "1h 30m", got[0].Human)
}

func TestDurations_ContiguousAndSummed(t *testing.T) {
	moves := []domain.StatusMovement{
		{From: "Open", To: "In Progress", At: t0.Add(17 * time.Minute)},
		{From: "In Progress", To: "Review", At: t0.Add(26*time.Hour + 3*time.Minute)},
		{From: "Review", To: "In Progress", At: t0.Add(27 * time.Hour)},
		{From: "In Progress", To: "Done", At: t0.Add(200*time.Hour + 11*time.Minute)},
	}
	now := t0.Add(321*time.Hour + 59*time.Minute)

	got := Durations(moves, t0, now)

	require.Len(t, got, len(moves)+1)
	assert.Equal(t, t0, got[0].Start)
	assert.Equal(t, now, got[len(got)-1].End)
	for i := 0; i < len(got)-1; i++ {
		assert.Equal(t, got[i].End, got[i+1].Start, "interval %d", i)
	}
	assert.InDelta(t, now.Sub(t0).Hours(), TotalHours(got), 0.005*float64(len(got)))
}

func TestDurations_OutOfOrderIsClamped(t *testing.T) {
	moves := []domain.StatusMovement{
		{From: "Open", To: "Doing", At: t0.Add(2 * time.Hour)},
		{From: "Doing", To: "Done", At: t0.Add(time.Hour)},
	}
	got := Durations(moves, t0, t0.Add(3*time.Hour))
	require.Len(t, got, 3)
	assert.Equal(t, 0.0, got[1].Hours)
	assert.Equal(t, got[1].End, got[2].Start)
	assert.Equal(t, 3.0, TotalHours(got))
}

func TestDurations_MovementAfterNowIsCapped(t *testing.T) {
	moves := []domain.StatusMovement{{From: "Backlog", To: "Development", At: t0.Add(10 * time.Hour)}}
	now := t0.Add(5 * time.Hour)

	got := Durations(moves, t0, now)

	last := got[len(got)-1]
	assert.Equal(t, now, last.End)
	assert.True(t, last.Current)
	assert.Equal(t, 5.0, TotalHours(got))
	for _, d := range got {
		assert.False(t, d.End.After(now), d.Status)
	}
}

func TestDurations_CreatedAfterNow(t *testing.T) {
	got := Durations(nil, t0.Add(time.Hour), t0)
	require.Len(t, got, 1)
	assert.Equal(t, t0, got[0].Start)
	assert.Equal(t, t0, got[0].End)
	assert.Equal(t, 0.0, got[0].Hours)
}

func TestUntil(t *testing.T) {
	now := t0.Add(5 * time.Hour)
	moves := []domain.StatusMovement{
		{From: "Backlog", To: "Development", At: t0.Add(time.Hour)},
		{From: "Development", To: "Done", At: t0.Add(10 * time.Hour)},
		{From: "Backlog", To: "Review", At: now},
	}
	flags := []domain.FlagEvent{
		{Action: domain.FlagAdded, At: t0.Add(6 * time.Hour), Comment: "Impediment"},
		{Action: domain.FlagAdded, At: t0.Add(2 * time.Hour), Comment: "Impediment"},
	}

	gotMoves, gotFlags := Until(moves, flags, now)

	require.Len(t, gotMoves, 2)
	assert.Equal(t, "Development", gotMoves[0].To)
	assert.Equal(t, "Review", gotMoves[1].To)
	require.Len(t, gotFlags, 1)
	assert.Equal(t, t0.Add(2*time.Hour), gotFlags[0].At)
	assert.Len(t, moves, 3)
}

func TestFormatHours(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0m"},
		{0.004, "0m"},
		{0.5, "30m"},
		{1, "1h"},
		{25.25, "1d 1h 15m"},
		{24 * 7 * 2, "2w"},
		{24*7*2 + 24*3 + 1, "2w 3d 1h"},
		{1.999, "2h"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatHours(tt.in), "hours=%v", tt.in)
	}
}

func TestCompletion(t *testing.T) {
	vocab := domain.DefaultVocabulary()
	moves := []domain.StatusMovement{
		{From: "Open", To: "Done", At: t0.Add(time.Hour)},
		{From: "Done", To: "Reopened", At: t0.Add(2 * time.Hour)},
		{From: "Reopened", To: "closed", At: t0.Add(3 * time.Hour)},
	}

	done, at := Completion("Closed", moves, vocab)
	require.True(t, done)
	require.NotNil(t, at)
	assert.Equal(t, t0.Add(3*time.Hour), *at)

	done, at = Completion("Reopened", moves, vocab)
	assert.False(t, done)
	assert.Nil(t, at)
}
