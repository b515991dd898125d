package lifecycle

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultStoreFileName is the base name of the cache file.
const DefaultStoreFileName = "protein_cache.db3"

// DefaultNameAttempts bounds how many numbered names are tried.
const DefaultNameAttempts = 10

const permissionMarker = "TempFileToTestFileIOPermissions.tmp"

// Resolver picks a writable location for the store file. It never fails:
// every problem is logged at debug level and handled by falling back.
//
// Order of preference:
//  1. the directory holding the running executable, if a marker file can be
//     written there
//  2. the system temp directory
//  3. the bare file name, relative to the working directory
//
// Within the chosen directory a stale file with the same name is deleted; if
// that fails the next numbered name (name1, name2, ...) is tried.
type Resolver struct {
	// AppDir returns the preferred directory. Defaults to the executable's
	// directory.
	AppDir func() (string, error)

	// TempFile creates a uniquely named file and returns its path.
	// Defaults to os.CreateTemp in the system temp directory.
	TempFile func() (string, error)

	// Remove deletes a file. Defaults to os.Remove.
	Remove func(string) error

	// MaxAttempts bounds the numbered names tried. Defaults to
	// DefaultNameAttempts.
	MaxAttempts int

	Logger *slog.Logger
}

// NewResolver returns a resolver with the default probes.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{Logger: logger}
}

// Resolve returns the path to use for fileName.
func (r *Resolver) Resolve(fileName string) string {
	if fileName == "" {
		fileName = DefaultStoreFileName
	}
	logger := r.logger()

	dir, ok := r.writableDir()
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultNameAttempts
	}

	for attempt := 0; attempt < attempts; attempt++ {
		name := numberedName(fileName, attempt)
		path := name
		if ok {
			path = filepath.Join(dir, name)
		}

		if !exists(path) {
			logger.Debug("store path defined", "path", path)
			return path
		}

		logger.Debug("deleting stale store file", "path", path)
		if err := r.remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("unable to delete stale store file", "path", path, "error", err)
			continue
		}
		if !exists(path) {
			logger.Debug("store path defined", "path", path)
			return path
		}
	}

	logger.Debug("no usable store path found; using file name in working directory", "path", fileName)
	return fileName
}

// writableDir returns the first directory that passed a write probe.
func (r *Resolver) writableDir() (string, bool) {
	logger := r.logger()

	appDir := r.AppDir
	if appDir == nil {
		appDir = executableDir
	}
	if dir, err := appDir(); err != nil {
		logger.Debug("unable to determine application directory", "error", err)
	} else {
		marker := filepath.Join(dir, permissionMarker)
		logger.Debug("checking for write permission", "path", marker)
		if err := writeMarker(marker); err != nil {
			logger.Debug("unable to create the file", "path", marker, "error", err)
		} else {
			logger.Debug("deleting permission marker", "path", marker)
			_ = r.remove(marker)
			return dir, true
		}
	}

	tempFile := r.TempFile
	if tempFile == nil {
		tempFile = createTempFile
	}
	tmp, err := tempFile()
	if err != nil {
		logger.Debug("unable to create file in temp directory", "error", err)
		return "", false
	}
	logger.Debug("created file in temp directory", "path", tmp)
	logger.Debug("deleting temp file", "path", tmp)
	_ = r.remove(tmp)
	return filepath.Dir(tmp), true
}

func (r *Resolver) remove(path string) error {
	if r.Remove != nil {
		return r.Remove(path)
	}
	return os.Remove(path)
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// numberedName returns fileName for attempt 0 and stem+attempt+ext after.
func numberedName(fileName string, attempt int) string {
	if attempt == 0 {
		return fileName
	}
	ext := filepath.Ext(fileName)
	stem := strings.TrimSuffix(fileName, ext)
	return fmt.Sprintf("%s%d%s", stem, attempt, ext)
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

func writeMarker(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString("Test\n"); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func createTempFile() (string, error) {
	f, err := os.CreateTemp("", "protcache-*.tmp")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		return "", err
	}
	return name, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
