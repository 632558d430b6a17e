// File: cmd/cache.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/drivermatch/internal/cache"
	"github.com/xkilldash9x/drivermatch/internal/observability"
)

func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or reset the remembered driver version",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the cached driver version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if cfg.Cache().File == "" {
				return fmt.Errorf("cache.file is not configured")
			}
			store := cache.NewFileStore(appFs, cfg.Cache().File)
			v, ok, err := store.Read()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no cached version")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget the cached driver version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if cfg.Cache().File == "" {
				return fmt.Errorf("cache.file is not configured")
			}
			store := cache.NewFileStore(appFs, cfg.Cache().File)
			if err := store.Clear(); err != nil {
				return err
			}
			observability.GetLogger().Info("Resolution cache cleared.")
			return nil
		},
	}

	cacheCmd.AddCommand(showCmd, clearCmd)
	return cacheCmd
}
