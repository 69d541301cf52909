package guard

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(Config{File: filepath.Join(t.TempDir(), "GUARD")}, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestFileStore_EmptyList(t *testing.T) {
	s := newTestStore(t)

	records, err := s.List(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileStore_CreateAssignsIncreasingIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r1, err := s.Create(ctx, EntityPath{1, 2}, 0, TypeFatal)
	require.NoError(t, err)
	r2, err := s.Create(ctx, EntityPath{1, 3}, 7, TypeManual)
	require.NoError(t, err)

	assert.Equal(t, uint32(1), r1.RecordID)
	assert.Equal(t, uint32(2), r2.RecordID)
	assert.Equal(t, uint32(7), r2.ElogID)

	records, err := s.List(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []Record{r1, r2}, records)
}

func TestFileStore_CreateOverridesSamePath(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Create(ctx, EntityPath{1, 2}, 0, TypePredictive)
	require.NoError(t, err)
	second, err := s.Create(ctx, EntityPath{1, 2}, 9, TypeFatal)
	require.NoError(t, err)

	assert.Equal(t, first.RecordID, second.RecordID)
	assert.Equal(t, TypeFatal, second.ErrType)

	records, err := s.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint32(9), records[0].ElogID)
}

func TestFileStore_ClearSetsSentinel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r, err := s.Create(ctx, EntityPath{4}, 0, TypeManual)
	require.NoError(t, err)
	require.NoError(t, s.Clear(ctx, r.RecordID))

	records, err := s.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Valid())

	assert.ErrorIs(t, s.Clear(ctx, r.RecordID), ErrRecordNotFound)
	assert.ErrorIs(t, s.Clear(ctx, InvalidRecordID), ErrRecordNotFound)

	// a cleared location gets a fresh record
	again, err := s.Create(ctx, EntityPath{4}, 0, TypeManual)
	require.NoError(t, err)
	assert.NotEqual(t, r.RecordID, again.RecordID)
}

func TestFileStore_ListExcludesEphemeral(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, EntityPath{1}, 0, TypeFatal)
	require.NoError(t, err)
	_, err = s.Create(ctx, EntityPath{2}, 0, TypeReconfig)
	require.NoError(t, err)
	_, err = s.Create(ctx, EntityPath{3}, 0, TypeStickyDeconfig)
	require.NoError(t, err)

	all, err := s.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	persistent, err := s.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, persistent, 1)
	assert.Equal(t, TypeFatal, persistent[0].ErrType)
}

func TestFileStore_ClearAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, EntityPath{1}, 0, TypeFatal)
	require.NoError(t, err)
	_, err = s.Create(ctx, EntityPath{2}, 0, TypeManual)
	require.NoError(t, err)

	n, err := s.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := s.List(ctx, false)
	require.NoError(t, err)
	for _, r := range records {
		assert.False(t, r.Valid())
	}
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "GUARD")
	ctx := context.Background()

	s1, err := NewFileStore(Config{File: path}, zap.NewNop())
	require.NoError(t, err)
	r, err := s1.Create(ctx, EntityPath{0xaa}, 3, TypeUnrecoverable)
	require.NoError(t, err)

	s2, err := NewFileStore(Config{File: path}, zap.NewNop())
	require.NoError(t, err)
	records, err := s2.List(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []Record{r}, records)
}

func TestFileStore_CorruptFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte{0xff, 0x00, 0x13}, 0o644))

	_, err := s.List(context.Background(), false)
	assert.Error(t, err)
}

func TestConfig_LockPath(t *testing.T) {
	assert.Equal(t, "/a/GUARD.lock", Config{File: "/a/GUARD"}.LockPath())
	assert.Equal(t, "/run/g.lock", Config{File: "/a/GUARD", LockFile: "/run/g.lock"}.LockPath())
}
