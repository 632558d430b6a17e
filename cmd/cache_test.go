// File: cmd/cache_test.go
package cmd

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheCmd_ShowEmpty(t *testing.T) {
	useFakes(t, browserProber(browserVersion))

	out, err := runCmd(t, "cache", "show")
	require.NoError(t, err)
	assert.Equal(t, "no cached version", strings.TrimSpace(out))
}

func TestCacheCmd_ShowAndClear(t *testing.T) {
	fs := useFakes(t, browserProber(browserVersion), "94.0.4606.61")

	_, err := runCmd(t, "resolve")
	require.NoError(t, err)

	out, err := runCmd(t, "cache", "show")
	require.NoError(t, err)
	assert.Equal(t, "94.0.4606.61", strings.TrimSpace(out))

	_, err = runCmd(t, "cache", "clear")
	require.NoError(t, err)
	exists, err := afero.Exists(fs, testCacheFile)
	require.NoError(t, err)
	assert.False(t, exists)

	// Clearing twice is fine.
	_, err = runCmd(t, "cache", "clear")
	assert.NoError(t, err)
}
