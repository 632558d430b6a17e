// File: cmd/open.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/drivermatch/internal/observability"
)

func newOpenCmd() *cobra.Command {
	var (
		noCache   bool
		targetURL string
		headed    bool
	)

	openCmd := &cobra.Command{
		Use:   "open [url]",
		Short: "Resolve a driver, open the browser on a page and print its title",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			applyDriverFlags(cfg, noCache)
			if cmd.Flags().Changed("url") {
				cfg.SetOpenURL(targetURL)
			}
			if len(args) == 1 {
				cfg.SetOpenURL(args[0])
			}
			if headed {
				cfg.SetBrowserHeadless(false)
			}

			logger := observability.GetLogger()
			components, err := componentFactory.Create(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize components: %w", err)
			}
			if components.Launcher == nil {
				return fmt.Errorf("open requires a driver launcher")
			}

			driverVersion, err := components.Resolver.Resolve(ctx)
			if err != nil {
				return err
			}

			session, err := components.Launcher.Launch(ctx, driverVersion)
			if err != nil {
				return fmt.Errorf("failed to launch driver %s: %w", driverVersion, err)
			}
			defer func() {
				if cerr := session.Close(context.WithoutCancel(ctx)); cerr != nil {
					logger.Warn("Failed to close browser session cleanly.", zap.Error(cerr))
				}
			}()

			url := cfg.Open().URL
			if err := session.Navigate(ctx, url); err != nil {
				return fmt.Errorf("failed to navigate to %s: %w", url, err)
			}
			title, err := session.Title(ctx)
			if err != nil {
				return fmt.Errorf("failed to read page title: %w", err)
			}

			logger.Info("Browser opened successfully.",
				zap.String("url", url),
				zap.String("driver_version", driverVersion),
				zap.String("browser_version", session.BrowserVersion()),
			)
			fmt.Fprintln(cmd.OutOrStdout(), title)
			return nil
		},
	}

	addDriverFlags(openCmd, &noCache)
	openCmd.Flags().StringVar(&targetURL, "url", "", "Page to open (overrides open.url)")
	openCmd.Flags().BoolVar(&headed, "headed", false, "Show the browser window")
	return openCmd
}
