package telegram

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionDir_Users(t *testing.T) {
	tmp := t.TempDir()
	dir, err := NewSessionDir(tmp)
	assert.NoError(t, err)

	files := []string{
		"user_123.session",
		"user_456.session",
		"notes.txt",
		"user_.session",
		"user_abc.session",
	}
	for _, name := range files {
		assert.NoError(t, os.WriteFile(filepath.Join(tmp, name), []byte("{}"), 0o600))
	}

	users, err := dir.Users()

	assert.NoError(t, err)
	assert.ElementsMatch(t, []int64{123, 456}, users)
}

func TestSessionDir_UsersEmpty(t *testing.T) {
	dir, err := NewSessionDir(t.TempDir())
	assert.NoError(t, err)

	users, err := dir.Users()

	assert.NoError(t, err)
	assert.Empty(t, users)
}

func TestSessionDir_PathFor(t *testing.T) {
	tmp := t.TempDir()
	dir, err := NewSessionDir(tmp)
	assert.NoError(t, err)

	assert.Equal(t, filepath.Join(tmp, "user_42.session"), dir.PathFor(42))
}

func TestSessionDir_Remove(t *testing.T) {
	tmp := t.TempDir()
	dir, err := NewSessionDir(tmp)
	assert.NoError(t, err)

	assert.NoError(t, os.WriteFile(dir.PathFor(42), []byte("{}"), 0o600))

	assert.NoError(t, dir.Remove(42))

	_, err = os.Stat(dir.PathFor(42))
	assert.True(t, os.IsNotExist(err))

	// Removing a missing file is not an error
	assert.NoError(t, dir.Remove(42))
}

func TestSessionDir_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sessions")

	_, err := NewSessionDir(path)

	assert.NoError(t, err)
	info, err := os.Stat(path)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())
}
