package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0644))

	require.NoError(t, store.Store(ctx, "bucket", "processed/out.xlsx", src))
	assert.FileExists(t, filepath.Join(root, "bucket", "processed", "out.xlsx"))

	dst := filepath.Join(t.TempDir(), "staging", "input.xlsx")
	require.NoError(t, store.Fetch(ctx, "bucket", "processed/out.xlsx", dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestLocalStoreFetchMissing(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	err := store.Fetch(context.Background(), "bucket", "nope.xlsx", filepath.Join(t.TempDir(), "in.xlsx"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.NotErrorIs(t, err, ErrStore)

	var storageErr *Error
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, OpFetch, storageErr.Op)
	assert.Equal(t, "bucket", storageErr.Bucket)
	assert.Equal(t, "nope.xlsx", storageErr.Key)
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	src := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(src, nil, 0644))

	for _, key := range []string{"../x", "a/../../x", ""} {
		err := store.Store(context.Background(), "bucket", key, src)
		assert.ErrorIs(t, err, ErrStore, key)
	}
	assert.ErrorIs(t, store.Store(context.Background(), "", "k", src), ErrStore)
}

func TestLocalStoreCanceledContext(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Store(ctx, "bucket", "k", "unused")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrStore)
}
