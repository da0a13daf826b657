package local

import (
	"context"
	"io"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeai-backend/internal/shared/storage/object"
)

func TestSaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	store := New(t.TempDir())

	key, size, mime, err := store.Save(ctx, "cv.pdf", strings.NewReader("%PDF-1.4 hello"))
	require.NoError(t, err)
	assert.Equal(t, "cv.pdf", path.Base(key))
	assert.Equal(t, int64(len("%PDF-1.4 hello")), size)
	assert.Equal(t, "application/pdf", mime)

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 hello", string(data))

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)

	require.NoError(t, store.Delete(ctx, key))

	err = store.Delete(ctx, key)
	assert.ErrorIs(t, err, object.ErrNotFound)

	_, err = store.Open(ctx, key)
	assert.ErrorIs(t, err, object.ErrNotFound)

	keys, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSaveDistinctKeysForSameName(t *testing.T) {
	ctx := context.Background()
	store := New(t.TempDir())

	k1, _, _, err := store.Save(ctx, "cv.png", strings.NewReader("a"))
	require.NoError(t, err)
	k2, _, _, err := store.Save(ctx, "cv.png", strings.NewReader("b"))
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
	assert.Equal(t, path.Base(k1), path.Base(k2))
}

func TestRejectsTraversalKeys(t *testing.T) {
	ctx := context.Background()
	store := New(t.TempDir())

	for _, key := range []string{"../secret", "/etc/passwd", ""} {
		_, err := store.Open(ctx, key)
		assert.Error(t, err, key)
		assert.Error(t, store.Delete(ctx, key), key)
	}
}

func TestListMissingBaseDir(t *testing.T) {
	store := New(t.TempDir() + "/missing")
	keys, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}
