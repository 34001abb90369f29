package jira

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/anvarKhakimov/jira-gantt-app/internal/config"
	"github.com/anvarKhakimov/jira-gantt-app/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDecoder() *Decoder {
	return NewDecoder(config.Config{JiraBlockerTypeField: "customfield_31724", JiraLeadTimeField: "customfield_38310"}, zerolog.Nop())
}

func TestDecode_SearchResponse(t *testing.T) {
	data, err := os.ReadFile("testdata/search.json")
	require.NoError(t, err)

	issues, err := newTestDecoder().Decode(data)
	require.NoError(t, err)
	require.Len(t, issues, 2)

	epic := issues[0]
	assert.Equal(t, "PROJ-1", epic.Key)
	assert.Equal(t, "Epic", epic.IssueType)
	assert.Equal(t, "In Progress", epic.Status)
	assert.Equal(t, time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC), epic.Created)
	assert.Equal(t, "External", epic.BlockerType)
	assert.Equal(t, "12", epic.BlockerLeadTime)

	require.Len(t, epic.Links, 2)
	assert.Equal(t, domain.Link{Type: "Inclusion", Direction: domain.Outward, Issue: domain.LinkedIssue{Key: "PROJ-2", Summary: "Cart", Status: "Done"}}, epic.Links[0])
	assert.Equal(t, domain.Inward, epic.Links[1].Direction)
	assert.Equal(t, "OPS-7", epic.Links[1].Issue.Key)

	require.Len(t, epic.History, 1)
	h := epic.History[0]
	assert.Equal(t, "Ann", h.Author)
	assert.Equal(t, time.Date(2024, 1, 16, 7, 0, 0, 0, time.UTC), h.Created)
	require.Len(t, h.Items, 2)
	assert.Equal(t, domain.FieldChange{Field: "status", FieldID: "status", From: "Backlog", To: "In Progress"}, h.Items[0])
	assert.Equal(t, "", h.Items[1].From)
	assert.Equal(t, "Impediment", h.Items[1].To)

	assert.Equal(t, "PROJ-1", issues[1].ParentKey)
	assert.Empty(t, issues[1].Links)
	assert.Empty(t, issues[1].BlockerType)
}

func TestDecode_Shapes(t *testing.T) {
	d := newTestDecoder()

	one, err := d.Decode([]byte(`{"key":"A-1","fields":{"summary":"single"}}`))
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "single", one[0].Summary)
	assert.True(t, one[0].Created.IsZero())

	arr, err := d.Decode([]byte(` [{"key":"A-1"},{"key":"A-2"}] `))
	require.NoError(t, err)
	assert.Len(t, arr, 2)

	none, err := d.Decode([]byte(`{"issues":[]}`))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDecode_Errors(t *testing.T) {
	d := newTestDecoder()
	tests := map[string]struct {
		in    string
		empty bool
	}{
		"blank":      {in: "  \n", empty: true},
		"no issues":  {in: `{"total":0}`, empty: true},
		"bad json":   {in: `{"issues":`},
		"bad array":  {in: `[1,`},
		"not object": {in: `"x"`},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := d.Decode([]byte(tc.in))
			require.Error(t, err)
			assert.Equal(t, tc.empty, errors.Is(err, ErrEmptyPayload))
			assert.Equal(t, !tc.empty, errors.Is(err, ErrMalformed))
		})
	}
}

func TestOptionToString(t *testing.T) {
	assert.Equal(t, "", optionToString(nil))
	assert.Equal(t, "a", optionToString("a"))
	assert.Equal(t, "b", optionToString(map[string]any{"name": "b"}))
	assert.Equal(t, "x, y", optionToString([]any{map[string]any{"value": "x"}, "y"}))
	assert.Equal(t, "3.5", optionToString(3.5))
}

func TestKey(t *testing.T) {
	d := newTestDecoder()
	assert.Equal(t, "K-1", d.Key([]byte(`{"key":" K-1 "}`)))
	assert.Equal(t, "", d.Key([]byte(`[]`)))
}
