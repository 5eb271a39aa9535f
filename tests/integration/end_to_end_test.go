package integration

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"snapify/pkg/config"
	"snapify/pkg/syncer"
)

func TestFreshStateDownloadsWholeStory(t *testing.T) {
	h := NewTestHelper(t)
	h.Server.SetStory("alice", "u1", "u2", "vid3")

	engine, _ := h.NewEngine()
	rows, err := engine.RunPass(context.Background(), []string{"alice"})
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, syncer.StatusOK, rows[0].Status)
	assert.Equal(t, 3, rows[0].NewItems)
	assert.Equal(t, 3, rows[0].Downloaded)
	assert.Equal(t, []string{"u1.jpg", "u2.jpg", "vid3.mp4"}, h.UserFiles("alice"))

	st := h.LoadState()
	assert.ElementsMatch(t, []string{
		h.Server.MediaURL("u1"), h.Server.MediaURL("u2"), h.Server.MediaURL("vid3"),
	}, st.Seen("alice"))

	content, err := os.ReadFile(filepath.Join(h.Config.Output.BaseDirectory, "alice", "u1.jpg"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "media-u1-")
}

func TestRestartOnlyDownloadsNewMedia(t *testing.T) {
	h := NewTestHelper(t)
	h.Server.SetStory("alice", "u1")

	engine, store := h.NewEngine()
	_, err := engine.RunPass(context.Background(), []string{"alice"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// a new process picks up the persisted state
	h.Server.SetStory("alice", "u1", "u2")
	engine, _ = h.NewEngine()
	rows, err := engine.RunPass(context.Background(), []string{"alice"})
	require.NoError(t, err)

	assert.Equal(t, 1, rows[0].NewItems)
	assert.Equal(t, 1, h.Server.Downloads("u1"))
	assert.Equal(t, 1, h.Server.Downloads("u2"))
	assert.Len(t, h.LoadState().Seen("alice"), 2)
}

func TestRepeatedPassIsIdempotent(t *testing.T) {
	h := NewTestHelper(t)
	h.Server.SetStory("alice", "u1", "u2")
	h.Server.SetStory("bob", "b1")

	engine, _ := h.NewEngine()
	users := []string{"alice", "bob"}
	_, err := engine.RunPass(context.Background(), users)
	require.NoError(t, err)

	rows, err := engine.RunPass(context.Background(), users)
	require.NoError(t, err)
	for _, row := range rows {
		assert.Zero(t, row.NewItems, row.Username)
		assert.Zero(t, row.Downloaded, row.Username)
	}
	assert.Equal(t, 1, h.Server.Downloads("u1"))
	assert.Equal(t, 1, h.Server.Downloads("b1"))
}

func TestFailuresAreIsolatedPerUser(t *testing.T) {
	h := NewTestHelper(t)
	h.Server.SetStory("alice", "u1", "u2", "u3")
	h.Server.SetMediaStatus("u3", http.StatusInternalServerError)
	h.Server.SetStory("broken", "x1")
	h.Server.BreakPage("broken")
	h.Server.SetStory("flaky", "f1")
	h.Server.SetPageStatus("flaky", http.StatusServiceUnavailable)
	h.Server.SetStory("carol", "c1")

	users := []string{"alice", "ghost", "broken", "flaky", "carol"}
	engine, _ := h.NewEngine()
	rows, err := engine.RunPass(context.Background(), users)
	require.NoError(t, err)

	require.Len(t, rows, len(users))
	byUser := make(map[string]syncer.UserSyncResult)
	for i, row := range rows {
		assert.Equal(t, users[i], row.Username)
		byUser[row.Username] = row
	}

	assert.Equal(t, 3, byUser["alice"].NewItems)
	assert.Equal(t, 2, byUser["alice"].Downloaded)
	assert.Equal(t, 1, byUser["alice"].Skipped)
	assert.Equal(t, syncer.StatusNotFound, byUser["ghost"].Status)
	assert.Equal(t, syncer.StatusParseFailed, byUser["broken"].Status)
	assert.Equal(t, syncer.StatusFetchFailed, byUser["flaky"].Status)
	assert.Equal(t, 1, byUser["carol"].Downloaded)

	// the failed download is not on disk but is recorded as seen
	assert.Equal(t, []string{"u1.jpg", "u2.jpg"}, h.UserFiles("alice"))
	st := h.LoadState()
	assert.True(t, st.Has("alice", h.Server.MediaURL("u3")))
	assert.False(t, st.Contains("ghost"))
	assert.False(t, st.Contains("broken"))
	assert.False(t, st.Contains("flaky"))
	assert.True(t, st.Has("carol", h.Server.MediaURL("c1")))
}

func TestCorruptStateFileStartsEmpty(t *testing.T) {
	h := NewTestHelper(t)
	require.NoError(t, os.WriteFile(h.Config.State.Path, []byte("{not json"), 0644))
	h.Server.SetStory("alice", "u1")

	engine, _ := h.NewEngine()
	rows, err := engine.RunPass(context.Background(), []string{"alice"})
	require.NoError(t, err)

	assert.Equal(t, 1, rows[0].Downloaded)
	assert.True(t, h.Logger.HasMessage("State file corrupt, starting empty"))
	assert.Len(t, h.LoadState().Seen("alice"), 1)
}

func TestBoltBackend(t *testing.T) {
	h := NewTestHelper(t)
	h.Config.State.Backend = config.StateBackendBolt
	h.Config.State.Path = filepath.Join(t.TempDir(), "autoposts.db")
	h.Server.SetStory("alice", "u1", "vid2")

	engine, store := h.NewEngine()
	rows, err := engine.RunPass(context.Background(), []string{"alice"})
	require.NoError(t, err)
	assert.Equal(t, 2, rows[0].Downloaded)
	require.NoError(t, store.Close())

	assert.Len(t, h.LoadState().Seen("alice"), 2)
}

func TestUnwritableStateFileFailsThePass(t *testing.T) {
	h := NewTestHelper(t)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	h.Config.State.Path = filepath.Join(blocker, "autoposts.json")
	h.Server.SetStory("alice", "u1")

	engine, _ := h.NewEngine()
	rows, err := engine.RunPass(context.Background(), []string{"alice"})

	require.Error(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Downloaded)
	assert.True(t, engine.State().Has("alice", h.Server.MediaURL("u1")))
}
