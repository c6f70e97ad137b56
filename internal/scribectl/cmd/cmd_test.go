// Copyright © 2025 jackelyj <dreamerlyj@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//

package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovationmech/scribe/pkg/config/testutil"
)

const editScript = `
- type: document/applyTemplate
  payload: {name: memo}
- type: document/setTitle
  payload: {title: Plan}
- type: document/appendContent
  payload: {html: "<p>Ship it on Friday</p>"}
`

func newWorkspace(t *testing.T) *testutil.Sandbox {
	t.Helper()
	sb := testutil.NewSandbox(t)
	sb.WriteFile("scribe.yaml", "storage:\n  type: file\n  path: data\nmetrics:\n  enabled: false\n")
	return sb
}

func execute(t *testing.T, sb *testutil.Sandbox, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	root := NewRootScribeCtlCommand()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append([]string{"--config-dir", sb.Dir, "--no-color"}, args...))
	err := root.Execute()
	return buf.String(), err
}

func mustExecute(t *testing.T, sb *testutil.Sandbox, args ...string) string {
	t.Helper()
	out, err := execute(t, sb, args...)
	require.NoError(t, err, out)
	return out
}

func TestNewRootScribeCtlCommand(t *testing.T) {
	root := NewRootScribeCtlCommand()
	assert.Equal(t, "scribectl", root.Use)

	for _, name := range []string{"config-dir", "env", "slot", "no-color"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), name)
	}

	var names []string
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"apply", "undo", "redo", "show", "history", "clear", "serve", "watch", "version"}, names)
}

func TestEditingSession(t *testing.T) {
	sb := newWorkspace(t)
	script := sb.WriteFile("edit.yaml", editScript)

	out := mustExecute(t, sb, "apply", script)
	assert.Contains(t, out, `applied 3 steps to slot "default" (3 changed)`)
	assert.FileExists(t, sb.Path("data/default.json"))

	assert.Equal(t, "title: Plan\n", mustExecute(t, sb, "show", "title"))

	var state map[string]any
	require.NoError(t, json.Unmarshal([]byte(mustExecute(t, sb, "show", "--json")), &state))
	assert.Equal(t, "Plan", state["title"])
	assert.Equal(t, "memo", state["template"])
	assert.Equal(t, true, state["dirty"])

	assert.Contains(t, mustExecute(t, sb, "undo"), "undo: moved 1 step(s), now at 2 of 3")
	assert.NotContains(t, mustExecute(t, sb, "show", "content"), "Friday")

	assert.Contains(t, mustExecute(t, sb, "undo", "-n", "5"), "undo: moved 1 step(s), now at 1 of 3")
	assert.Equal(t, "title: Memo\n", mustExecute(t, sb, "show", "title"))
	assert.Contains(t, mustExecute(t, sb, "undo"), "nothing to undo")

	assert.Contains(t, mustExecute(t, sb, "redo", "--steps", "2"), "redo: moved 2 step(s), now at 3 of 3")
	assert.Contains(t, mustExecute(t, sb, "show", "content"), "Friday")

	out = mustExecute(t, sb, "history")
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "*2")
	assert.Contains(t, out, "position 3 of 3")

	var report struct {
		Length    int              `json:"length"`
		Index     int              `json:"index"`
		Snapshots []map[string]any `json:"snapshots"`
	}
	require.NoError(t, json.Unmarshal([]byte(mustExecute(t, sb, "history", "--json")), &report))
	assert.Equal(t, 3, report.Length)
	assert.Equal(t, 2, report.Index)
	require.Len(t, report.Snapshots, 3)
	assert.Equal(t, "Memo", report.Snapshots[0]["title"])

	assert.Contains(t, mustExecute(t, sb, "clear"), `cleared slot "default"`)
	assert.NoFileExists(t, sb.Path("data/default.json"))
	assert.Equal(t, "title: \n", mustExecute(t, sb, "show", "title"))
	assert.Contains(t, mustExecute(t, sb, "history"), `no history for slot "default"`)
}

func TestApply_DryRunAndSlot(t *testing.T) {
	sb := newWorkspace(t)
	script := sb.WriteFile("edit.yaml", editScript)

	out := mustExecute(t, sb, "apply", "--dry-run", script)
	assert.Contains(t, out, "dry run: 3 steps applied, 3 changed the document")
	assert.NoFileExists(t, sb.Path("data/default.json"))

	mustExecute(t, sb, "--slot", "drafts", "apply", script)
	assert.FileExists(t, sb.Path("data/drafts.json"))
	assert.NoFileExists(t, sb.Path("data/default.json"))

	retitle := sb.WriteFile("retitle.yaml", "- type: document/setTitle\n  payload: {title: Plan}\n")
	assert.Contains(t, mustExecute(t, sb, "--slot", "drafts", "apply", retitle), "document unchanged")
}

func TestApply_PartialFailure(t *testing.T) {
	sb := newWorkspace(t)
	script := sb.WriteFile("edit.yaml", `
- type: document/setTitle
  payload: {title: Kept}
- type: document/rename
`)

	out, err := execute(t, sb, "apply", script)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document/rename")
	assert.Contains(t, out, "1 of 2 steps failed")
	assert.Equal(t, "title: Kept\n", mustExecute(t, sb, "show", "title"))
}

func TestCommandErrors(t *testing.T) {
	sb := newWorkspace(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown key", args: []string{"show", "subtitle"}, want: `key "subtitle" is not set`},
		{name: "bad steps", args: []string{"undo", "--steps", "0"}, want: "--steps must be at least 1"},
		{name: "missing script", args: []string{"apply", sb.Path("missing.yaml")}, want: "read script"},
		{name: "apply without args", args: []string{"apply"}, want: "accepts 1 arg"},
		{name: "bad slot", args: []string{"--slot", "a/b", "show"}, want: "invalid config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, sb, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestVersion(t *testing.T) {
	sb := newWorkspace(t)
	assert.Contains(t, mustExecute(t, sb, "version"), "scribectl version 0.1.0")
}
