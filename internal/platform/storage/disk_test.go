package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "public", "uploads")
	s := NewDiskStore(dir)

	require.NoError(t, s.Save("photo_1.jpg", strings.NewReader("first")))
	require.NoError(t, s.Save("photo_1.jpg", strings.NewReader("second")))

	b, err := os.ReadFile(filepath.Join(dir, "photo_1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDiskStore_RejectsPaths(t *testing.T) {
	s := NewDiskStore(t.TempDir())
	assert.Error(t, s.Save("../escape.jpg", strings.NewReader("x")))
}
