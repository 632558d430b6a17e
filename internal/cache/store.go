// File: internal/cache/store.go
package cache

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/xkilldash9x/drivermatch/api/schemas"
)

// ErrInvalidVersion is returned when asked to persist an empty or multi-line value.
var ErrInvalidVersion = errors.New("cache: version must be a non-empty single line")

// FileStore keeps the last successfully resolved driver version in a one-line text file.
type FileStore struct {
	fs   afero.Fs
	path string
}

var _ schemas.VersionCache = (*FileStore)(nil)

// NewFileStore creates a store backed by path on fs.
func NewFileStore(fs afero.Fs, path string) *FileStore {
	return &FileStore{fs: fs, path: path}
}

// Path returns the location of the cache file.
func (s *FileStore) Path() string { return s.path }

// Read returns the first line of the cache file. A missing or blank file is
// reported as ok == false without an error.
func (s *FileStore) Read() (string, bool, error) {
	f, err := s.fs.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to open cache file %s: %w", s.path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", false, fmt.Errorf("failed to read cache file %s: %w", s.path, err)
		}
		return "", false, nil
	}
	v := strings.TrimSpace(scanner.Text())
	if v == "" {
		return "", false, nil
	}
	return v, true, nil
}

// Write replaces the cached version. The value lands in a temporary file in
// the same directory first and is renamed over the old one, so readers see
// either the previous value or the new one.
func (s *FileStore) Write(v string) error {
	v = strings.TrimSpace(v)
	if v == "" || strings.ContainsAny(v, "\r\n") {
		return ErrInvalidVersion
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary cache file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = s.fs.Remove(tmpName)
		}
	}()

	if _, err := tmp.WriteString(v + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	if err := s.fs.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set cache file permissions: %w", err)
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace cache file %s: %w", s.path, err)
	}
	committed = true
	return nil
}

// Clear removes the cache file. Clearing an absent cache is not an error.
func (s *FileStore) Clear() error {
	if err := s.fs.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove cache file %s: %w", s.path, err)
	}
	return nil
}
