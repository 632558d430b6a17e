// File: cmd/resolve.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/drivermatch/internal/config"
	"github.com/xkilldash9x/drivermatch/internal/observability"
	"github.com/xkilldash9x/drivermatch/internal/resolver"
)

func newResolveCmd() *cobra.Command {
	var (
		noCache   bool
		printPath bool
	)

	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the driver version compatible with the installed browser",
		Long: `Probes the drivers in the driver directory, starting from the cached version if there is
one, and prints the first version that opens a browser session. A mismatch report from a
driver narrows the choice directly to the matching catalog entry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			applyDriverFlags(cfg, noCache)

			logger := observability.GetLogger()
			components, err := componentFactory.Create(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize components: %w", err)
			}

			result, err := components.Resolver.ResolveDetailed(ctx)
			if err != nil {
				return err
			}
			logResult(logger, result)

			if printPath {
				if components.Launcher == nil {
					return fmt.Errorf("driver path is unavailable without a launcher")
				}
				fmt.Fprintln(cmd.OutOrStdout(), components.Launcher.DriverPath(result.Version))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Version)
			return nil
		},
	}

	addDriverFlags(resolveCmd, &noCache)
	resolveCmd.Flags().BoolVar(&printPath, "path", false, "Print the full path of the driver binary instead of its version")
	return resolveCmd
}

// addDriverFlags registers the flags shared by every command that resolves a driver.
func addDriverFlags(cmd *cobra.Command, noCache *bool) {
	cmd.Flags().String("driver-dir", "", "Directory holding the driver binaries (overrides driver.dir)")
	cmd.Flags().BoolVar(noCache, "no-cache", false, "Neither read nor write the resolution cache")
}

// applyDriverFlags applies the flags that are not bound to config keys;
// --driver-dir is bound in PersistentPreRunE.
func applyDriverFlags(cfg config.Interface, noCache bool) {
	if noCache {
		cfg.SetCacheDisabled(true)
	}
}

func logResult(logger *zap.Logger, result resolver.Result) {
	fields := []zap.Field{
		zap.String("driver_version", result.Version),
		zap.String("source", string(result.Source)),
		zap.Int("probes", result.Probes),
	}
	if result.Detected != "" {
		fields = append(fields, zap.String("browser_version", result.Detected))
	}
	logger.Info("Resolved compatible driver.", fields...)
}
