package filestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s *BillyStore) {
	t.Helper()

	h := s.Handle("httpsexamplecomavatarpng")
	assert.Equal(t, ".jpg", filepath.Ext(h))

	ok, err := s.Exists(h)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Delete(h), "deleting a missing file is not an error")

	require.NoError(t, s.Write(h, []byte("first")))
	require.NoError(t, s.Write(h, []byte("second!")))

	ok, err = s.Exists(h)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := util.ReadFile(s.Unwrap(), s.name(h))
	require.NoError(t, err)
	assert.Equal(t, "second!", string(data))

	size, err := s.Size(h)
	require.NoError(t, err)
	assert.Equal(t, int64(7), size)

	require.NoError(t, s.Delete(h))
	ok, err = s.Exists(h)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Size(h)
	assert.Error(t, err)
}

func TestBillyStore_Memory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestBillyStore_Local(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")
	s, err := NewLocal(dir)
	require.NoError(t, err)

	exerciseStore(t, s)

	h := s.Handle("abc")
	assert.Equal(t, filepath.Join(dir, "abc.jpg"), h)
	require.NoError(t, s.Write(h, []byte("x")))

	_, err = os.Stat(h)
	assert.NoError(t, err, "handle should be a real path on disk")
}

func TestBillyStore_ExternalDeletion(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir)
	require.NoError(t, err)

	h := s.Handle("gone")
	require.NoError(t, s.Write(h, []byte("x")))
	require.NoError(t, os.Remove(h))

	ok, err := s.Exists(h)
	require.NoError(t, err)
	assert.False(t, ok)
}
