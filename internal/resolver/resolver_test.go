// File: internal/resolver/resolver_test.go
package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/drivermatch/api/schemas"
	"github.com/xkilldash9x/drivermatch/internal/cache"
	"github.com/xkilldash9x/drivermatch/internal/catalog"
)

// -- Test Doubles --

type fakeSession struct {
	version string
	owner   *fakeProber
}

func (s *fakeSession) ID() string            { return "session-" + s.version }
func (s *fakeSession) DriverVersion() string { return s.version }
func (s *fakeSession) Close(ctx context.Context) error {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	s.owner.open--
	return s.owner.closeErr
}

// fakeProber succeeds for versions in ok and fails with the scripted error otherwise.
type fakeProber struct {
	mu       sync.Mutex
	ok       map[string]bool
	failures map[string]error
	fallback error
	closeErr error
	calls    []string
	open     int
}

func (p *fakeProber) Probe(ctx context.Context, v string) (schemas.DriverSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, v)
	if p.ok[v] {
		p.open++
		return &fakeSession{version: v, owner: p}, nil
	}
	if err, found := p.failures[v]; found {
		return nil, err
	}
	if p.fallback != nil {
		return nil, p.fallback
	}
	return nil, errors.New("unknown error: chrome failed to start")
}

type memCache struct {
	value    string
	has      bool
	readErr  error
	writeErr error
	writes   int
}

func (c *memCache) Read() (string, bool, error) { return c.value, c.has, c.readErr }

func (c *memCache) Write(v string) error {
	c.writes++
	if c.writeErr != nil {
		return c.writeErr
	}
	c.value, c.has = v, true
	return nil
}

func mustCatalog(t *testing.T, versions ...string) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Build(versions, "")
	require.NoError(t, err)
	return cat
}

func mismatch(browser string) error {
	return &schemas.IncompatibleDriverError{
		DetectedVersion: browser,
		Message:         "session not created: This version of ChromeDriver only supports Chrome version 94",
	}
}

func newResolver(t *testing.T, cat *catalog.Catalog, c schemas.VersionCache, p schemas.Prober) *Resolver {
	t.Helper()
	r, err := New(cat, c, p, zap.NewNop())
	require.NoError(t, err)
	return r
}

// -- Test Cases --

func TestNew(t *testing.T) {
	_, err := New(nil, nil, &fakeProber{}, nil)
	assert.ErrorIs(t, err, schemas.ErrEmptyCatalog)

	_, err = New(mustCatalog(t, "92.0.4515.43"), nil, nil, nil)
	assert.Error(t, err)
}

func TestResolve_CachedHintProbedOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	cat := mustCatalog(t, "94.0.4606.61", "93.0.4577.63", "92.0.4515.43")
	c := &memCache{value: "93.0.4577.63", has: true}
	p := &fakeProber{ok: map[string]bool{"93.0.4577.63": true, "94.0.4606.61": true}}

	res, err := newResolver(t, cat, c, p).ResolveDetailed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "93.0.4577.63", res.Version)
	assert.Equal(t, SourceLaunch, res.Source)
	assert.Equal(t, []string{"93.0.4577.63"}, p.calls, "only the cached version is probed")
	assert.Equal(t, 0, p.open, "probe session must be released")
}

func TestResolve_NoCacheNewestSucceeds(t *testing.T) {
	cat := mustCatalog(t, "94.0.4606.61", "93.0.4577.63")
	c := &memCache{}
	p := &fakeProber{ok: map[string]bool{"94.0.4606.61": true, "93.0.4577.63": true}}

	v, err := newResolver(t, cat, c, p).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "94.0.4606.61", v)
	assert.Equal(t, []string{"94.0.4606.61"}, p.calls)
	assert.Equal(t, "94.0.4606.61", c.value)
}

func TestResolve_NarrowsFromDiagnostic(t *testing.T) {
	cat := mustCatalog(t, "94.0.4606.61", "93.0.4577.63", "92.0.4515.43")
	c := &memCache{}
	p := &fakeProber{fallback: errors.New("session not created: Current browser version is 92.0.4515.99 with binary path /x")}

	res, err := newResolver(t, cat, c, p).ResolveDetailed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "92.0.4515.43", res.Version)
	assert.Equal(t, SourceDiagnostic, res.Source)
	assert.Equal(t, "92.0.4515.99", res.Detected)
	assert.Equal(t, []string{"94.0.4606.61"}, p.calls, "the narrowed version is not probed again")
	assert.Equal(t, "92.0.4515.43", c.value)
}

func TestResolve_TypedDiagnosticPreferred(t *testing.T) {
	cat := mustCatalog(t, "94.0.4606.61", "92.0.4515.43", "92.0.4515.20")
	p := &fakeProber{failures: map[string]error{"94.0.4606.61": mismatch("92.0.4515.107")}}

	v, err := newResolver(t, cat, nil, p).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "92.0.4515.43", v, "the highest entry with the detected major is chosen")
}

func TestResolve_UnsupportedBrowserIsFatal(t *testing.T) {
	cat := mustCatalog(t, "94.0.4606.61", "93.0.4577.63")
	c := &memCache{value: "93.0.4577.63", has: true}
	p := &fakeProber{failures: map[string]error{"93.0.4577.63": mismatch("92.0.4515.99")}}

	_, err := newResolver(t, cat, c, p).Resolve(context.Background())
	require.ErrorIs(t, err, schemas.ErrNoCompatibleDriver)
	assert.Contains(t, err.Error(), "major 92")
	assert.Equal(t, []string{"93.0.4577.63"}, p.calls, "probing stops once the browser is known to be unsupported")
	assert.Equal(t, 0, c.writes, "cache is left unmodified")
	assert.Equal(t, "93.0.4577.63", c.value)
}

func TestResolve_UnparseableFailuresMoveOn(t *testing.T) {
	cat := mustCatalog(t, "94.0.4606.61", "93.0.4577.63", "92.0.4515.43")
	p := &fakeProber{
		ok:       map[string]bool{"92.0.4515.43": true},
		failures: map[string]error{"94.0.4606.61": errors.New("chrome not reachable")},
	}

	res, err := newResolver(t, cat, &memCache{}, p).ResolveDetailed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "92.0.4515.43", res.Version)
	assert.Equal(t, 3, res.Probes)
	if diff := cmp.Diff([]string{"94.0.4606.61", "93.0.4577.63", "92.0.4515.43"}, p.calls); diff != "" {
		t.Errorf("unexpected probe order (-want +got):\n%s", diff)
	}
}

func TestResolve_AllCandidatesFail(t *testing.T) {
	cat := mustCatalog(t, "94.0.4606.61", "93.0.4577.63")
	c := &memCache{}
	p := &fakeProber{}

	_, err := newResolver(t, cat, c, p).Resolve(context.Background())
	require.ErrorIs(t, err, schemas.ErrNoCompatibleDriver)
	assert.ErrorIs(t, err, schemas.ErrUnparseableDiagnostic)
	assert.Len(t, p.calls, 2, "each candidate is probed exactly once")
	assert.Equal(t, 0, c.writes)
}

func TestResolve_FailedHintFallsBackToFullScan(t *testing.T) {
	cat := mustCatalog(t, "94.0.4606.61", "93.0.4577.63", "92.0.4515.43")
	c := &memCache{value: "93.0.4577.63", has: true}
	p := &fakeProber{ok: map[string]bool{"94.0.4606.61": true}}

	v, err := newResolver(t, cat, c, p).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "94.0.4606.61", v)
	assert.Equal(t, []string{"93.0.4577.63", "94.0.4606.61"}, p.calls, "hint first, then catalog order without repeating the hint")
	assert.Equal(t, "94.0.4606.61", c.value)
}

func TestResolve_HintOutsideCatalogIgnored(t *testing.T) {
	cat := mustCatalog(t, "94.0.4606.61", "93.0.4577.63")
	c := &memCache{value: "92.0.4515.99", has: true}
	p := &fakeProber{ok: map[string]bool{"94.0.4606.61": true}}

	v, err := newResolver(t, cat, c, p).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "94.0.4606.61", v)
	assert.Equal(t, []string{"94.0.4606.61"}, p.calls)
}

func TestResolve_CacheErrorsAreNotFatal(t *testing.T) {
	cat := mustCatalog(t, "94.0.4606.61")
	c := &memCache{readErr: errors.New("permission denied"), writeErr: errors.New("read-only file system")}
	p := &fakeProber{ok: map[string]bool{"94.0.4606.61": true}}

	v, err := newResolver(t, cat, c, p).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "94.0.4606.61", v)
	assert.Equal(t, 1, c.writes)
}

func TestResolve_SessionCloseErrorStillSucceeds(t *testing.T) {
	cat := mustCatalog(t, "94.0.4606.61")
	p := &fakeProber{ok: map[string]bool{"94.0.4606.61": true}, closeErr: errors.New("already gone")}

	v, err := newResolver(t, cat, nil, p).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "94.0.4606.61", v)
	assert.Equal(t, 0, p.open)
}

func TestResolve_ContextCanceled(t *testing.T) {
	cat := mustCatalog(t, "94.0.4606.61", "93.0.4577.63")
	ctx, cancel := context.WithCancel(context.Background())
	c := &memCache{}
	p := schemas.ProbeFunc(func(ctx context.Context, v string) (schemas.DriverSession, error) {
		cancel()
		return nil, context.Canceled
	})

	_, err := newResolver(t, cat, c, p).Resolve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, c.writes)
}

func TestResolve_RoundTripThroughFileStore(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := cache.NewFileStore(fs, "/resources/chrome_version.txt")
	cat := mustCatalog(t, "94.0.4606.61", "93.0.4577.63", "92.0.4515.43")

	first := &fakeProber{fallback: mismatch("93.0.4577.82")}
	v, err := newResolver(t, cat, store, first).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "93.0.4577.63", v)

	cached, ok, err := store.Read()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, v, cached)

	// The next run validates the cached answer with a single launch.
	second := &fakeProber{ok: map[string]bool{"93.0.4577.63": true}}
	v, err = newResolver(t, cat, store, second).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "93.0.4577.63", v)
	assert.Equal(t, []string{"93.0.4577.63"}, second.calls)
}

func TestResolve_AlwaysReturnsCatalogMember(t *testing.T) {
	cat := mustCatalog(t, "94.0.4606.61", "93.0.4577.63", "92.0.4515.43")
	outcomes := []error{
		nil,
		mismatch("92.0.4515.99"),
		mismatch("91.0.4472.19"),
		errors.New("crash"),
	}
	for _, first := range outcomes {
		for _, second := range outcomes {
			p := schemas.ProbeFunc(func() func(context.Context, string) (schemas.DriverSession, error) {
				n := 0
				return func(ctx context.Context, v string) (schemas.DriverSession, error) {
					n++
					err := second
					if n == 1 {
						err = first
					}
					if err != nil {
						return nil, err
					}
					return &fakeSession{version: v, owner: &fakeProber{}}, nil
				}
			}())
			v, err := newResolver(t, cat, nil, p).Resolve(context.Background())
			if err != nil {
				assert.ErrorIs(t, err, schemas.ErrNoCompatibleDriver)
				continue
			}
			assert.True(t, cat.Contains(v), "resolved %q is not a catalog member", v)
		}
	}
}

func TestDetectedVersion(t *testing.T) {
	v, ok := detectedVersion(&schemas.IncompatibleDriverError{Message: "Current browser version is 92.0.4515.99 with binary path /x"})
	assert.True(t, ok)
	assert.Equal(t, "92.0.4515.99", v)

	_, ok = detectedVersion(&schemas.IncompatibleDriverError{Message: "no hint here"})
	assert.False(t, ok)

	_, ok = detectedVersion(errors.New("connection refused"))
	assert.False(t, ok)
}
