package lifecycle

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func debugLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestResolve_UsesWritableAppDir(t *testing.T) {
	dir := t.TempDir()
	var logs bytes.Buffer
	r := &Resolver{
		AppDir: func() (string, error) { return dir, nil },
		Logger: debugLogger(&logs),
	}

	path := r.Resolve("cache.db3")
	assert.Equal(t, filepath.Join(dir, "cache.db3"), path)

	_, err := os.Stat(filepath.Join(dir, permissionMarker))
	assert.True(t, os.IsNotExist(err), "permission marker must be removed")
	assert.Contains(t, logs.String(), "checking for write permission")
}

func TestResolve_FallsBackToTempDir(t *testing.T) {
	tmpDir := t.TempDir()
	r := &Resolver{
		AppDir: func() (string, error) { return filepath.Join(tmpDir, "missing", "dir"), nil },
		TempFile: func() (string, error) {
			f, err := os.CreateTemp(tmpDir, "probe-*.tmp")
			if err != nil {
				return "", err
			}
			defer f.Close()
			return f.Name(), nil
		},
	}

	path := r.Resolve("cache.db3")
	assert.Equal(t, filepath.Join(tmpDir, "cache.db3"), path)

	matches, err := filepath.Glob(filepath.Join(tmpDir, "probe-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temp probe file must be removed")
}

func TestResolve_BareNameWhenNothingWritable(t *testing.T) {
	r := &Resolver{
		AppDir:   func() (string, error) { return "", errors.New("no executable") },
		TempFile: func() (string, error) { return "", errors.New("no temp dir") },
	}
	t.Chdir(t.TempDir())

	assert.Equal(t, "cache.db3", r.Resolve("cache.db3"))
}

func TestResolve_DeletesStaleFile(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "cache.db3")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

	r := &Resolver{AppDir: func() (string, error) { return dir, nil }}

	assert.Equal(t, stale, r.Resolve("cache.db3"))
	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

func TestResolve_NumbersNameWhenStaleFileLocked(t *testing.T) {
	dir := t.TempDir()
	locked := filepath.Join(dir, "cache.db3")
	require.NoError(t, os.WriteFile(locked, []byte("old"), 0644))

	r := &Resolver{
		AppDir: func() (string, error) { return dir, nil },
		Remove: func(p string) error {
			if p == locked {
				return errors.New("locked")
			}
			return os.Remove(p)
		},
	}

	assert.Equal(t, filepath.Join(dir, "cache1.db3"), r.Resolve("cache.db3"))
}

func TestResolve_GivesUpAfterMaxAttempts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"cache.db3", "cache1.db3", "cache2.db3"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("old"), 0644))
	}

	r := &Resolver{
		AppDir:      func() (string, error) { return dir, nil },
		MaxAttempts: 3,
		Remove: func(p string) error {
			if filepath.Ext(p) == ".db3" {
				return errors.New("locked")
			}
			return os.Remove(p)
		},
	}

	assert.Equal(t, "cache.db3", r.Resolve("cache.db3"))
}

func TestNumberedName(t *testing.T) {
	assert.Equal(t, "cache.db3", numberedName("cache.db3", 0))
	assert.Equal(t, "cache1.db3", numberedName("cache.db3", 1))
	assert.Equal(t, "cache12.db3", numberedName("cache.db3", 12))
	assert.Equal(t, "cache3", numberedName("cache", 3))
}
