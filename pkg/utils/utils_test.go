package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFolder(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "storages", "images")
	b := filepath.Join(root, "other")

	require.NoError(t, CreateFolder(a, "", b))

	for _, dir := range []string{a, b} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestPanicIfNeeded(t *testing.T) {
	assert.NotPanics(t, func() { PanicIfNeeded(nil) })

	boom := errors.New("boom")
	assert.PanicsWithError(t, "boom", func() { PanicIfNeeded(boom) })
}
