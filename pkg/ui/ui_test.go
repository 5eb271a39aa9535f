package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"snapify/pkg/syncer"
)

type recordingSender struct {
	titles   []string
	messages []string
	err      error
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	r.messages = append(r.messages, message)
	return r.err
}

var checked = time.Date(2024, 5, 1, 9, 5, 7, 0, time.UTC)

func sampleRows() []syncer.UserSyncResult {
	return []syncer.UserSyncResult{
		{Username: "alice", Status: syncer.StatusOK, NewItems: 3, Downloaded: 2, Skipped: 1, CheckedAt: checked},
		{Username: "bob", Status: syncer.StatusOK, CheckedAt: checked},
		{Username: "ghost", Status: syncer.StatusNotFound, CheckedAt: checked, Reason: "feed not found"},
		{Username: "offline", Status: syncer.StatusFetchFailed, CheckedAt: checked},
	}
}

func TestColorize(t *testing.T) {
	SetNoColor(false)
	assert.Equal(t, "\033[31mboom\033[0m", Red("boom"))

	SetNoColor(true)
	defer SetNoColor(false)
	assert.Equal(t, "boom", Red("boom"))
}

func TestResultRows(t *testing.T) {
	cells := ResultRows(sampleRows())

	require.Len(t, cells, 4)
	assert.Equal(t, []string{"alice", "ok", "3", "2", "2024-05-01 09:05:07"}, cells[0])
	assert.Equal(t, []string{"ghost", "not_found", "0", "0", "2024-05-01 09:05:07"}, cells[2])
}

func TestRenderResults(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	assert.Empty(t, RenderResults(nil))

	out := RenderResults(sampleRows())
	for _, want := range []string{ToolTitle, "User", "New Items", "Checked At", "alice", "ghost", "not_found", "2024-05-01 09:05:07"} {
		assert.Contains(t, out, want)
	}
	// title sits above the table
	assert.Less(t, strings.Index(out, ToolTitle), strings.Index(out, "alice"))
}

func TestPrintPassSummary(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	var buf bytes.Buffer
	PrintPassSummary(&buf, sampleRows())

	assert.Equal(t, strings.Join([]string{
		"alice: 2 new media downloaded.",
		"bob: 0 new media downloaded.",
		"ghost: No story data found.",
		"offline: Story fetch failed.",
		"",
	}, "\n"), buf.String())
}

func TestNotifyPass(t *testing.T) {
	sender := &recordingSender{err: errors.New("no display")}
	n := NewNotifierWithSender(sender)

	assert.False(t, n.NotifyPass([]syncer.UserSyncResult{{Username: "bob", Status: syncer.StatusOK}}))
	assert.Empty(t, sender.messages)

	assert.True(t, n.NotifyPass(sampleRows()))
	require.Len(t, sender.messages, 1)
	assert.Equal(t, "Snapify", sender.titles[0])
	assert.Equal(t, "2 new media from alice", sender.messages[0])
}

func TestAppleScriptEscape(t *testing.T) {
	assert.Equal(t, `say \"hi\" \\ bye`, appleScriptEscape(`say "hi" \ bye`))
}
