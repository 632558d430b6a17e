// File: internal/service/factory.go
package service

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/xkilldash9x/drivermatch/api/schemas"
	"github.com/xkilldash9x/drivermatch/internal/cache"
	"github.com/xkilldash9x/drivermatch/internal/catalog"
	"github.com/xkilldash9x/drivermatch/internal/config"
	"github.com/xkilldash9x/drivermatch/internal/resolver"
	"github.com/xkilldash9x/drivermatch/internal/webdriver"
)

// Components is the wired set of collaborators for one resolution run.
type Components struct {
	Catalog  *catalog.Catalog
	Cache    *cache.FileStore // nil when the cache is disabled
	Launcher *webdriver.Launcher
	Resolver *resolver.Resolver
}

// ComponentFactory builds Components from configuration. Commands depend on
// this interface so tests can substitute the driver probe.
type ComponentFactory interface {
	Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*Components, error)
}

// concreteFactory is the production implementation of the ComponentFactory.
type concreteFactory struct {
	fs afero.Fs
}

// NewComponentFactory creates a factory backed by the operating system filesystem.
func NewComponentFactory() ComponentFactory {
	return &concreteFactory{fs: afero.NewOsFs()}
}

// Create discovers the catalog and wires the real driver launcher as the prober.
func (f *concreteFactory) Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*Components, error) {
	launcher := webdriver.NewLauncher(cfg, logger)
	return Assemble(f.fs, cfg, launcher, launcher, logger)
}

// Assemble wires the catalog, cache and resolver around the given prober.
func Assemble(fs afero.Fs, cfg config.Interface, prober schemas.Prober, launcher *webdriver.Launcher, logger *zap.Logger) (*Components, error) {
	cat, err := catalog.Discover(fs, cfg.Driver().Dir, cfg.Driver().Suffix, logger.Named("catalog"))
	if err != nil {
		return nil, err
	}
	logger.Debug("Driver catalog loaded.", zap.Strings("versions", cat.Versions()))

	components := &Components{Catalog: cat, Launcher: launcher}

	var store schemas.VersionCache
	if !cfg.Cache().Disabled {
		components.Cache = cache.NewFileStore(fs, cfg.Cache().File)
		store = components.Cache
	}

	res, err := resolver.New(cat, store, prober, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}
	components.Resolver = res
	return components, nil
}

// ResolveCompatibleDriverVersion is the one-call entry point: it discovers the
// local drivers and returns the version compatible with the installed browser.
// Failures wrap schemas.ErrEmptyCatalog or schemas.ErrNoCompatibleDriver.
func ResolveCompatibleDriverVersion(ctx context.Context, cfg config.Interface, logger *zap.Logger) (string, error) {
	components, err := NewComponentFactory().Create(ctx, cfg, logger)
	if err != nil {
		return "", err
	}
	return components.Resolver.Resolve(ctx)
}
