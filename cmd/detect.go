// File: cmd/detect.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/drivermatch/api/schemas"
	"github.com/xkilldash9x/drivermatch/internal/browser"
	"github.com/xkilldash9x/drivermatch/internal/config"
	"github.com/xkilldash9x/drivermatch/internal/observability"
)

// versionDetector reports the installed browser version.
type versionDetector interface {
	InstalledVersion(ctx context.Context) (string, error)
}

var newDetector = func(cfg config.Interface, logger *zap.Logger) versionDetector {
	return browser.NewDetector(cfg, logger)
}

func newDetectCmd() *cobra.Command {
	detectCmd := &cobra.Command{
		Use:   "detect",
		Short: "Ask the browser for its version directly and show the matching catalog driver",
		Long: `Starts the browser over the DevTools protocol, without any driver, and reads its version.
The newest catalog driver sharing the browser's major version is printed alongside it. No
driver is launched and the resolution cache is left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			applyDriverFlags(cfg, true)

			logger := observability.GetLogger()
			browserVersion, err := newDetector(cfg, logger).InstalledVersion(ctx)
			if err != nil {
				return err
			}

			components, err := componentFactory.Create(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize components: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "browser: %s\n", browserVersion)
			driverVersion, ok := components.Catalog.FirstCompatible(browserVersion)
			if !ok {
				return fmt.Errorf("%w: browser %s", schemas.ErrNoCompatibleDriver, browserVersion)
			}
			fmt.Fprintf(out, "driver:  %s\n", driverVersion)
			return nil
		},
	}

	detectCmd.Flags().String("driver-dir", "", "Directory holding the driver binaries (overrides driver.dir)")
	detectCmd.Flags().String("browser", "", "Browser binary to inspect (overrides browser.binary)")
	return detectCmd
}
