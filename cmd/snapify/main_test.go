package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"snapify/pkg/state"
)

func TestFormatInterval(t *testing.T) {
	assert.Equal(t, "1 minute", formatInterval(time.Minute))
	assert.Equal(t, "5 minutes", formatInterval(5*time.Minute))
	assert.Equal(t, "1m30s", formatInterval(90*time.Second))
}

func TestRunSyncRejectsEmptyUserList(t *testing.T) {
	rootCmd.SetArgs([]string{"--user", " , ,"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	assert.ErrorIs(t, err, errUsage)
}

func TestStateForgetCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "autoposts.json")

	store := state.NewJSONFileStore(path, nil)
	st := state.New()
	st.Merge("alice", []string{"u1", "u2"})
	st.Merge("bob", []string{"b1"})
	require.NoError(t, store.Save(st))

	rootCmd.SetArgs([]string{"state", "forget", "alice", "--json", path, "--no-color"})
	defer rootCmd.SetArgs(nil)
	require.NoError(t, rootCmd.Execute())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, loaded.Users())
}
