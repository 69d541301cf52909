package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileWatcher_DeliversWritesToWatchedFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "guard")
	require.NoError(t, os.WriteFile(target, []byte("a"), 0o644))

	var hits atomic.Int32
	fw, err := New(target, func() { hits.Add(1) }, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fw.Start(ctx)

	require.NoError(t, os.WriteFile(target, []byte("b"), 0o644))

	assert.Eventually(t, func() bool { return hits.Load() > 0 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, fw.Close())
}

func TestFileWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "guard")

	var hits atomic.Int32
	fw, err := New(target, func() { hits.Add(1) }, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fw.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other"), []byte("x"), 0o644))
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int32(0), hits.Load())
	require.NoError(t, fw.Close())
}

func TestNew_MissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope", "guard"), func() {}, zap.NewNop())
	assert.Error(t, err)
}
