package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anvarKhakimov/jira-gantt-app/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const export = `{"issues":[
 {"key":"E-1","fields":{"summary":"Epic","issuetype":{"name":"Epic"},"status":{"name":"In Progress"},"created":"2024-01-10T10:00:00Z",
  "issuelinks":[{"type":{"name":"Inclusion"},"outwardIssue":{"key":"T-1"}}]},
  "changelog":{"histories":[{"created":"2024-01-11T10:00:00Z","items":[{"field":"status","fromString":"Backlog","toString":"In Progress"}]}]}},
 {"key":"T-1","fields":{"summary":"Child","status":{"name":"Backlog"},"created":"2024-01-12T10:00:00Z"}}
]}`

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestBuild_Stdin(t *testing.T) {
	out, _, err := run(t, export, "build", "--now", "2024-01-20T12:00:00Z")
	require.NoError(t, err)

	var res services.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Tasks, 2)
	assert.Equal(t, "E-1", res.Tasks[0].Key)
	assert.Equal(t, []int{2}, res.Tasks[0].ChildIDs)
	assert.Equal(t, "2024-01-20T12:00:00Z", res.Now.Format("2006-01-02T15:04:05Z07:00"))
}

func TestBuild_FileStatusAndOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "issues.json")
	outPath := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(in, []byte(export), 0o600))

	_, _, err := run(t, "", "build", "-i", in, "-o", outPath, "--now", "2024-01-20T12:00:00Z", "--status", "in progress", "--main", "T-1")
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var res services.Result
	require.NoError(t, json.Unmarshal(data, &res))
	require.Len(t, res.Tasks, 1)
	assert.Equal(t, "E-1", res.Tasks[0].Key)
	assert.Equal(t, "T-1", res.Summary.MainIssue)
}

func TestBuild_Errors(t *testing.T) {
	_, _, err := run(t, export, "build", "--now", "yesterday")
	assert.ErrorContains(t, err, "--now")

	_, _, err = run(t, export, "build", "--tz", "Nowhere/Invalid")
	assert.ErrorContains(t, err, "--tz")

	_, _, err = run(t, "", "build")
	assert.Error(t, err)

	_, _, err = run(t, "", "build", "-i", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "read input")
}

func TestLabels_PrintsYAML(t *testing.T) {
	out, _, err := run(t, "", "labels")
	require.NoError(t, err)
	assert.Contains(t, out, "blocked_statuses:")
	assert.Contains(t, out, "Заблокировано")
}
