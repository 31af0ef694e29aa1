package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDropboxHandlesSettledFilesOnce(t *testing.T) {
	dir := t.TempDir()
	var (
		mu      sync.Mutex
		handled []string
	)
	accept := func(p string) bool { return strings.HasSuffix(p, ".csv") }
	d := NewDropbox(dir, 50*time.Millisecond, accept, func(_ context.Context, p string) {
		mu.Lock()
		handled = append(handled, filepath.Base(p))
		mu.Unlock()
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "review.csv")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("ID,Status\n"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(handled) == 1
	}, 2*time.Second, 20*time.Millisecond)
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"review.csv"}, handled)
	mu.Unlock()

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Zero(t, d.Pending())
}

func TestDropboxRunWaitsForRunningHandler(t *testing.T) {
	dir := t.TempDir()
	started := make(chan struct{})
	var (
		once     sync.Once
		finished atomic.Bool
	)
	d := NewDropbox(dir, 20*time.Millisecond, nil, func(context.Context, string) {
		once.Do(func() { close(started) })
		time.Sleep(300 * time.Millisecond)
		finished.Store(true)
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "review.csv"), []byte("ID\n"), 0o644))
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not start")
	}
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.True(t, finished.Load())
}

func TestDropboxMissingDirectory(t *testing.T) {
	d := NewDropbox(filepath.Join(t.TempDir(), "absent"), 0, nil, func(context.Context, string) {}, nil)
	err := d.Run(context.Background())
	assert.Error(t, err)
}
