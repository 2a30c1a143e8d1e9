package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	dir := t.TempDir()
	w, err := New(filepath.Join(dir, "issues.db"), nil)
	require.NoError(t, err)
	defer w.Stop()

	assert.Equal(t, dir, w.dir)
	assert.NotNil(t, w.done)
}

func TestWatched(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "issues.db")
	w, err := New(dbPath, nil)
	require.NoError(t, err)
	defer w.Stop()

	assert.True(t, w.watched(dbPath))
	assert.True(t, w.watched(dbPath+"-wal"))
	assert.True(t, w.watched(dbPath+"-shm"))
	assert.True(t, w.watched(dbPath+"-journal"))
	assert.False(t, w.watched(filepath.Join(dir, "other.db")))
	assert.False(t, w.watched(filepath.Join(dir, "sub", "issues.db")))
}

func TestStartAndStopAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := New(filepath.Join(dir, "issues.db"), nil)
	require.NoError(t, err)

	require.NoError(t, w.Start())
	require.NoError(t, w.Start())
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

func TestNotifyOnDatabaseWrite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "issues.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("x"), 0o644))

	fired := make(chan struct{}, 1)
	w, err := New(dbPath, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Stop()
	require.NoError(t, w.Start())

	require.NoError(t, os.WriteFile(dbPath, []byte("xy"), 0o644))

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("callback did not fire after database write")
	}
}

func TestIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "issues.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("x"), 0o644))

	fired := make(chan struct{}, 1)
	w, err := New(dbPath, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Stop()
	require.NoError(t, w.Start())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	select {
	case <-fired:
		t.Fatal("callback fired for an unrelated file")
	case <-time.After(500 * time.Millisecond):
	}
}
