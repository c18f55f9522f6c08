package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingFileUsesDefaults(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "prefs.yaml"))
	assert.Equal(t, DefaultLanguage, s.Get(KeyAppLanguage, DefaultLanguage))
	assert.False(t, s.GetBool(KeyDarkMode, false))
	assert.Empty(t, s.All())
}

func TestSetPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")
	s := Open(path)
	assert.Equal(t, path, s.Path())

	require.NoError(t, s.Set(KeyAppLanguage, "ckb-iq"))
	require.NoError(t, s.SetBool(KeyDarkMode, true))

	reopened := Open(path)
	assert.Equal(t, "ckb-iq", reopened.Get(KeyAppLanguage, DefaultLanguage))
	assert.True(t, reopened.GetBool(KeyDarkMode, false))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestMalformedFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("::: not yaml [\n"), 0o644))

	s := Open(path)
	assert.Equal(t, "en", s.Get(KeyAppLanguage, "en"))

	require.NoError(t, s.Set(KeyAppLanguage, "ar"))
	reopened := Open(path)
	assert.Equal(t, "ar", reopened.Get(KeyAppLanguage, "en"))
}

func TestGetBoolUnparsable(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "prefs.yaml"))
	require.NoError(t, s.Set(KeyDarkMode, "maybe"))
	assert.True(t, s.GetBool(KeyDarkMode, true))
	assert.False(t, s.GetBool(KeyDarkMode, false))
}

func TestSetFailureRollsBack(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0o644))

	s := Open(filepath.Join(blocker, "prefs.yaml"))

	require.Error(t, s.Set(KeyAppLanguage, "ar"))
	assert.Equal(t, "en", s.Get(KeyAppLanguage, "en"))
}
