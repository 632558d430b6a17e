// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/drivermatch/api/schemas"
	"github.com/xkilldash9x/drivermatch/internal/config"
	"github.com/xkilldash9x/drivermatch/internal/service"
	"github.com/xkilldash9x/drivermatch/internal/version"
	"github.com/xkilldash9x/drivermatch/internal/webdriver"
)

const (
	testDriverDir  = "/drivers"
	testCacheFile  = "/state/chrome_version.txt"
	browserVersion = "94.0.4606.81"
)

// fakeFactory wires the real catalog, cache and resolver around a fake prober.
type fakeFactory struct {
	fs     afero.Fs
	prober schemas.Prober
	err    error
}

func (f *fakeFactory) Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*service.Components, error) {
	if f.err != nil {
		return nil, f.err
	}
	return service.Assemble(f.fs, cfg, f.prober, webdriver.NewLauncher(cfg, logger), logger)
}

type fakeSession struct{ v string }

func (s fakeSession) ID() string                      { return "session-" + s.v }
func (s fakeSession) DriverVersion() string           { return s.v }
func (s fakeSession) Close(ctx context.Context) error { return nil }

// browserProber behaves like drivers in front of an installed browser of the given version.
func browserProber(installed string) schemas.ProbeFunc {
	return func(ctx context.Context, driverVersion string) (schemas.DriverSession, error) {
		if version.Compatible(driverVersion, installed) {
			return fakeSession{v: driverVersion}, nil
		}
		return nil, &schemas.IncompatibleDriverError{
			DriverVersion:   driverVersion,
			DetectedVersion: installed,
			Message:         "This version of ChromeDriver only supports a different Chrome version",
		}
	}
}

// useFakes installs an in-memory filesystem holding the given driver versions
// and swaps the package collaborators for the duration of the test.
func useFakes(t *testing.T, prober schemas.Prober, versions ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(testDriverDir, 0o755))
	for _, v := range versions {
		require.NoError(t, afero.WriteFile(fs, testDriverDir+"/"+v+version.ExecutableSuffix(), []byte("bin"), 0o755))
	}

	origFactory, origFs := componentFactory, appFs
	componentFactory = &fakeFactory{fs: fs, prober: prober}
	appFs = fs
	t.Cleanup(func() {
		componentFactory, appFs = origFactory, origFs
	})

	t.Setenv("DRIVERMATCH_DRIVER_DIR", testDriverDir)
	t.Setenv("DRIVERMATCH_CACHE_FILE", testCacheFile)
	return fs
}

// runCmd executes a fresh command tree and returns what it wrote to stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}
