package watcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/restock/internal/watcher"
)

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "restock.db")
	err := os.WriteFile(storePath, []byte("test"), 0644)
	require.NoError(t, err, "failed to create test file")

	w, err := watcher.New(watcher.Config{
		StorePath:   storePath,
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err, "failed to create watcher")
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")

	// Rapid writes should coalesce into single notification
	for i := 0; i < 10; i++ {
		err := os.WriteFile(storePath, []byte(fmt.Sprintf("test%d", i)), 0644)
		require.NoError(t, err, "failed to write file")
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-onChange:
		// Expected
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected notification but got timeout")
	}

	// No second notification should come quickly
	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(100 * time.Millisecond):
		// Expected - no second notification
	}
}

func TestWatcher_IgnoresIrrelevantFiles(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "restock.db")
	require.NoError(t, os.WriteFile(storePath, []byte("test"), 0644))

	w, err := watcher.New(watcher.Config{
		StorePath:   storePath,
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err)

	// Writes to unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	select {
	case <-onChange:
		t.Fatal("unexpected notification for unrelated file")
	case <-time.After(150 * time.Millisecond):
		// Expected
	}
}

func TestWatcher_WALWritesCount(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "restock.db")
	require.NoError(t, os.WriteFile(storePath, []byte("test"), 0644))

	w, err := watcher.New(watcher.Config{
		StorePath:   storePath,
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(storePath+"-wal", []byte("wal"), 0644))

	select {
	case <-onChange:
		// Expected
	case <-time.After(300 * time.Millisecond):
		t.Fatal("expected notification for WAL write")
	}
}

func TestWatcher_StopIsClean(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "restock.db")
	require.NoError(t, os.WriteFile(storePath, []byte("test"), 0644))

	w, err := watcher.New(watcher.Config{
		StorePath:   storePath,
		DebounceDur: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = w.Start()
	require.NoError(t, err)
	require.NoError(t, w.Stop())
}
