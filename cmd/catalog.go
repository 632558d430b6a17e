// File: cmd/catalog.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/drivermatch/internal/observability"
)

func newCatalogCmd() *cobra.Command {
	var noCache bool

	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the driver versions found in the driver directory, newest first",
		Args:  cobra.NoArgs,
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

			var hint string
			if components.Cache != nil {
				v, ok, err := components.Cache.Read()
				if err != nil {
					logger.Warn("Failed to read resolution cache.", zap.Error(err))
				} else if ok {
					hint = v
				}
			}

			out := cmd.OutOrStdout()
			for _, v := range components.Catalog.Versions() {
				if v == hint {
					fmt.Fprintf(out, "* %s (cached)\n", v)
					continue
				}
				fmt.Fprintf(out, "  %s\n", v)
			}
			return nil
		},
	}

	addDriverFlags(catalogCmd, &noCache)
	return catalogCmd
}
