// File: cmd/open_test.go
package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/drivermatch/api/schemas"
)

func TestOpenCmd_TooManyArgs(t *testing.T) {
	useFakes(t, browserProber(browserVersion), "94.0.4606.61")

	_, err := runCmd(t, "open", "https://a.example", "https://b.example")
	assert.Error(t, err)
}

// Resolution fails before any driver process is launched.
func TestOpenCmd_NoCompatibleDriver(t *testing.T) {
	useFakes(t, browserProber("96.0.4664.45"), "94.0.4606.61")

	_, err := runCmd(t, "open", "https://example.org")
	require.Error(t, err)
	assert.ErrorIs(t, err, schemas.ErrNoCompatibleDriver)
}

// The resolved driver is then launched for real; with only a fake binary on
// an in-memory filesystem the launch must fail and the error names the version.
func TestOpenCmd_LaunchFailure(t *testing.T) {
	useFakes(t, browserProber(browserVersion), "94.0.4606.61")
	t.Setenv("DRIVERMATCH_PROBE_STARTUP_TIMEOUT", "2s")

	_, err := runCmd(t, "open", "--url", "https://example.org")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to launch driver 94.0.4606.61")
}
