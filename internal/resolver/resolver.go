// File: internal/resolver/resolver.go
package resolver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/drivermatch/api/schemas"
	"github.com/xkilldash9x/drivermatch/internal/catalog"
	"github.com/xkilldash9x/drivermatch/internal/version"
)

// Source records how a resolved version was established.
type Source string

const (
	// SourceLaunch means a session opened successfully with the driver.
	SourceLaunch Source = "launch"
	// SourceDiagnostic means the version was narrowed from a driver's mismatch report.
	SourceDiagnostic Source = "diagnostic"
)

// Result describes a successful resolution.
type Result struct {
	Version string
	Source  Source
	// Probes counts the sessions attempted, successful or not.
	Probes int
	// Detected is the browser version reported by a driver, if any was seen.
	Detected string
}

// Resolver finds the catalog driver that matches the installed browser, using
// session launches as the compatibility oracle.
type Resolver struct {
	catalog *catalog.Catalog
	cache   schemas.VersionCache
	prober  schemas.Prober
	logger  *zap.Logger
}

// New creates a Resolver. cache may be nil, in which case no hint is read or written.
func New(cat *catalog.Catalog, cache schemas.VersionCache, prober schemas.Prober, logger *zap.Logger) (*Resolver, error) {
	if cat == nil || cat.Len() == 0 {
		return nil, schemas.ErrEmptyCatalog
	}
	if prober == nil {
		return nil, errors.New("resolver: a prober is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		catalog: cat,
		cache:   cache,
		prober:  prober,
		logger:  logger.Named("resolver"),
	}, nil
}

// Resolve returns the catalog version compatible with the installed browser.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	res, err := r.ResolveDetailed(ctx)
	if err != nil {
		return "", err
	}
	return res.Version, nil
}

// ResolveDetailed runs the search and reports how the answer was reached.
//
// A cached hint that is still a catalog member is probed first. When a probe
// fails with a diagnostic naming the browser version, the highest catalog
// entry sharing its major version is taken without probing it again. Failures
// without a diagnostic move on to the next candidate.
func (r *Resolver) ResolveDetailed(ctx context.Context) (Result, error) {
	hint := r.readHint()
	order := r.probeOrder(hint)

	var failures []error
	probes := 0
	for _, candidate := range order {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		probes++
		err := r.probe(ctx, candidate)
		if err == nil {
			r.remember(candidate)
			r.logger.Info("Driver launched successfully.",
				zap.String("driver_version", candidate),
				zap.Int("probes", probes),
				zap.Bool("from_cache", candidate == hint))
			return Result{Version: candidate, Source: SourceLaunch, Probes: probes}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}

		detected, ok := detectedVersion(err)
		if !ok {
			r.logger.Warn("Probe failed without a browser version; trying next candidate.",
				zap.String("driver_version", candidate), zap.Error(err))
			failures = append(failures, fmt.Errorf("driver %s: %w: %w", candidate, schemas.ErrUnparseableDiagnostic, err))
			continue
		}

		r.logger.Info("Driver reported the installed browser version.",
			zap.String("driver_version", candidate),
			zap.String("browser_version", detected))

		match, ok := r.catalog.FirstCompatible(detected)
		if !ok {
			return Result{}, fmt.Errorf("%w: installed browser %s (major %s) has no driver in the catalog",
				schemas.ErrNoCompatibleDriver, detected, version.MajorPrefix(detected))
		}
		r.remember(match)
		return Result{Version: match, Source: SourceDiagnostic, Probes: probes, Detected: detected}, nil
	}

	return Result{}, fmt.Errorf("%w: all %d candidate(s) failed: %w",
		schemas.ErrNoCompatibleDriver, len(order), errors.Join(failures...))
}

// probe opens a session and releases it before returning, whatever the outcome.
func (r *Resolver) probe(ctx context.Context, candidate string) error {
	session, err := r.prober.Probe(ctx, candidate)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := session.Close(context.WithoutCancel(ctx)); cerr != nil {
			r.logger.Warn("Failed to release probe session.",
				zap.String("driver_version", candidate), zap.Error(cerr))
		}
	}()
	return nil
}

// probeOrder puts a viable hint first and keeps the rest in catalog order.
func (r *Resolver) probeOrder(hint string) []string {
	all := r.catalog.Versions()
	if hint == "" {
		return all
	}
	order := make([]string, 0, len(all))
	order = append(order, hint)
	for _, v := range all {
		if v != hint {
			order = append(order, v)
		}
	}
	return order
}

// readHint returns the cached version when it names a catalog member.
func (r *Resolver) readHint() string {
	if r.cache == nil {
		return ""
	}
	cached, ok, err := r.cache.Read()
	if err != nil {
		r.logger.Warn("Could not read the resolution cache; scanning the full catalog.", zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	if !r.catalog.Contains(cached) {
		r.logger.Info("Cached driver version is not in the catalog; ignoring it.", zap.String("cached_version", cached))
		return ""
	}
	r.logger.Debug("Using cached driver version as the first candidate.", zap.String("cached_version", cached))
	return cached
}

func (r *Resolver) remember(v string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Write(v); err != nil {
		r.logger.Warn("Could not update the resolution cache.", zap.String("driver_version", v), zap.Error(err))
	}
}

// detectedVersion pulls the browser version out of a probe failure, preferring
// the typed payload and falling back to the raw message.
func detectedVersion(err error) (string, bool) {
	var incompatible *schemas.IncompatibleDriverError
	if errors.As(err, &incompatible) {
		if incompatible.DetectedVersion != "" {
			return incompatible.DetectedVersion, true
		}
		if v, ok := version.ParseDiagnostic(incompatible.Message); ok {
			return v, true
		}
	}
	return version.ParseDiagnostic(err.Error())
}
