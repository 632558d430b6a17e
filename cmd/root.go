// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/drivermatch/internal/config"
	"github.com/xkilldash9x/drivermatch/internal/observability"
	"github.com/xkilldash9x/drivermatch/internal/service"
)

type contextKey string

const configKey contextKey = "config"

// Swappable collaborators, replaced in tests.
var (
	componentFactory = service.NewComponentFactory()
	appFs            = afero.NewOsFs()
)

// NewRootCommand builds a fresh command tree. Each call owns its own viper
// instance so flags from one invocation never leak into the next.
func NewRootCommand() *cobra.Command {
	var cfgFile string
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "drivermatch",
		Short: "drivermatch selects the local chromedriver that matches the installed Chrome.",
		Long: `drivermatch looks at the chromedriver binaries in a driver directory and finds the one
that can drive the browser installed on this machine. A mismatched driver reports the real
browser version when it refuses to start, and the last working version is remembered so the
next run usually needs a single launch.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.SetDefaults(v)
			if err := bindPathFlags(cmd, v); err != nil {
				return err
			}

			if err := initializeConfig(v, cfgFile); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "drivermatch"})
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Starting drivermatch", zap.String("version", Version))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	_ = v.BindPFlag("logger.level", rootCmd.PersistentFlags().Lookup("log-level"))
	rootCmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newOpenCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newDetectCmd())
	rootCmd.AddCommand(newCacheCmd())
	return rootCmd
}

// Execute runs the command tree with the given (signal-aware) context.
func Execute(ctx context.Context) error {
	defer observability.Sync()

	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			observability.GetLogger().Info("Interrupted.")
			return err
		}
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
		return err
	}
	return nil
}

// initializeConfig reads the config file and environment variables into v.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("DRIVERMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and environment variables apply.
	}
	return nil
}

// pathFlags maps subcommand flags naming filesystem paths to their config
// keys. Bound before the config is built, they go through the same home
// directory expansion and validation as values from the file or environment.
var pathFlags = map[string]string{
	"driver-dir": "driver.dir",
	"browser":    "browser.binary",
}

func bindPathFlags(cmd *cobra.Command, v *viper.Viper) error {
	for flag, key := range pathFlags {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", flag, err)
		}
	}
	return nil
}

// getConfigFromContext returns the configuration stored by PersistentPreRunE.
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not found in command context")
	}
	return cfg, nil
}
