// File: internal/catalog/catalog.go
package catalog

import (
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/xkilldash9x/drivermatch/api/schemas"
	"github.com/xkilldash9x/drivermatch/internal/version"
)

// Catalog is the immutable, newest-first list of driver versions available locally.
type Catalog struct {
	versions []string
}

// Build derives a catalog from driver binary names. The platform suffix is
// stripped from each name, names that are not versions and duplicates are
// dropped, and the result is ordered descending so the newest driver is
// probed first.
func Build(names []string, suffix string) (*Catalog, error) {
	seen := make(map[string]struct{}, len(names))
	versions := make([]string, 0, len(names))
	for _, name := range names {
		v, ok := versionFromName(name, suffix)
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		versions = append(versions, v)
	}
	if len(versions) == 0 {
		return nil, schemas.ErrEmptyCatalog
	}

	sort.Strings(versions)
	slices.Reverse(versions)
	return &Catalog{versions: versions}, nil
}

// versionFromName strips suffix from a binary name and reports whether what
// remains is a version.
func versionFromName(name, suffix string) (string, bool) {
	v := strings.TrimSpace(name)
	if suffix != "" {
		v = strings.TrimSuffix(v, suffix)
	}
	return v, version.Valid(v)
}

// Discover lists dir and builds a catalog from the driver binaries it holds.
// Subdirectories, dot files and files not named after a version (the license
// files shipped with chromedriver) are ignored.
func Discover(fs afero.Fs, dir, suffix string, logger *zap.Logger) (*Catalog, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list driver directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if suffix != "" && !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		if _, ok := versionFromName(entry.Name(), suffix); !ok {
			logger.Debug("Ignoring file that is not a driver binary.", zap.String("dir", dir), zap.String("name", entry.Name()))
			continue
		}
		names = append(names, entry.Name())
	}

	cat, err := Build(names, suffix)
	if err != nil {
		return nil, fmt.Errorf("driver directory %s: %w", filepath.Clean(dir), err)
	}
	return cat, nil
}

// Versions returns a copy of the catalog, newest first.
func (c *Catalog) Versions() []string {
	return slices.Clone(c.versions)
}

// Len returns the number of candidates.
func (c *Catalog) Len() int { return len(c.versions) }

// Contains reports whether v is a catalog member.
func (c *Catalog) Contains(v string) bool {
	return slices.Contains(c.versions, v)
}

// FirstCompatible returns the highest catalog entry compatible with the browser version.
func (c *Catalog) FirstCompatible(browserVersion string) (string, bool) {
	for _, v := range c.versions {
		if version.Compatible(v, browserVersion) {
			return v, true
		}
	}
	return "", false
}

// Supports reports whether any catalog entry is compatible with the browser version.
func (c *Catalog) Supports(browserVersion string) bool {
	_, ok := c.FirstCompatible(browserVersion)
	return ok
}
