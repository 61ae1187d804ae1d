package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatchDatasetDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weather.csv")
	require.NoError(t, os.WriteFile(path, []byte(header+"\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- WatchDataset(ctx, path, 50*time.Millisecond, func() { changed <- struct{}{} })
	}()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.csv"), []byte("x"), 0o644))
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(header+"\n1,2,3,4,5,6,7,8\n"), 0o644))
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
	select {
	case <-changed:
		t.Fatal("writes were not debounced")
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
}
