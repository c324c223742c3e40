package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	s := New(t.TempDir())
	require.NoError(t, s.Init())
	return s
}

func TestInitCreatesLayout(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	require.NoError(t, s.Init())

	for _, d := range []string{"public", "uploads", "temp"} {
		info, err := os.Stat(filepath.Join(root, d))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	// Init is idempotent.
	require.NoError(t, s.Init())
}

func TestSaveTempGeneratesNameWithExtension(t *testing.T) {
	s := newTestStore(t)

	name, err := s.SaveTemp(strings.NewReader("image-bytes"), "photo.jpg")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".jpg"))
	assert.NotEqual(t, "photo.jpg", name)

	data, err := os.ReadFile(s.TempPath(name))
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))
}

func TestSaveTempWithoutExtension(t *testing.T) {
	s := newTestStore(t)

	name, err := s.SaveTemp(strings.NewReader("x"), "README")
	require.NoError(t, err)
	assert.NotContains(t, name, ".")
}

func TestMoveToPermanent(t *testing.T) {
	s := newTestStore(t)

	name, err := s.SaveTemp(strings.NewReader("media"), "clip.mp4")
	require.NoError(t, err)

	path, err := s.MoveToPermanent(name, 7, 42)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/7/42/"+name, path)

	// The staged copy is gone and the permanent one holds the bytes.
	_, err = os.Stat(s.TempPath(name))
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(filepath.Join(s.root, "uploads", "7", "42", name))
	require.NoError(t, err)
	assert.Equal(t, "media", string(data))
}

func TestMoveToPermanentMissingFile(t *testing.T) {
	s := newTestStore(t)

	_, err := s.MoveToPermanent("deadbeef.jpg", 1, 1)
	assert.ErrorIs(t, err, ErrTempNotFound)
}

func TestMoveToPermanentRejectsExtensionlessName(t *testing.T) {
	s := newTestStore(t)

	name, err := s.SaveTemp(strings.NewReader("x"), "README")
	require.NoError(t, err)

	_, err = s.MoveToPermanent(name, 1, 1)
	assert.ErrorIs(t, err, ErrTempNotFound)
}
