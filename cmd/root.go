package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AzielCF/az-gym/core/config"
)

// container is built once per invocation in PersistentPreRunE and closed afterwards.
var container *application

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "az-gym",
	Short: "Persistent cache layer for the gym member app",
	Long: `az-gym keeps API responses and member images in a local persistent cache
so screens render instantly and keep working with a slow or missing network.`,
	SilenceUsage:      true,
	PersistentPreRunE: initApp,
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		if cmd.Name() != restCmd.Name() {
			stopApp()
		}
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()
}

func initFlags() {
	flags := rootCmd.PersistentFlags()
	flags.BoolP("debug", "d", false, "enable debug logging | example: --debug=true")
	flags.String("store-driver", "", "key-value store driver (sqlite, postgres, valkey, memory) | example: --store-driver=memory")
	flags.String("tenant", "", "tenant slug used to scope cache keys | example: --tenant=evolve")
	flags.String("user-id", "", "user id used to scope cache keys | example: --user-id=42")
	flags.StringP("port", "p", "", "change port number with --port <number> | example: --port=8080")

	_ = viper.BindPFlag("app_debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("store_driver", flags.Lookup("store-driver"))
	_ = viper.BindPFlag("tenant_slug", flags.Lookup("tenant"))
	_ = viper.BindPFlag("user_id", flags.Lookup("user-id"))
	_ = viper.BindPFlag("app_port", flags.Lookup("port"))
	viper.AutomaticEnv()
}

// applyOverrides copies explicitly set flags onto the loaded configuration.
func applyOverrides(cfg *config.Config) error {
	if viper.IsSet("app_debug") {
		cfg.App.Debug = viper.GetBool("app_debug")
	}
	if v := viper.GetString("store_driver"); v != "" {
		cfg.Store.Driver = v
	}
	if v := viper.GetString("tenant_slug"); v != "" {
		cfg.Identity.TenantSlug = v
	}
	if v := viper.GetString("user_id"); v != "" {
		cfg.Identity.UserID = v
	}
	if v := viper.GetString("app_port"); v != "" {
		cfg.App.Port = v
	}
	return cfg.Validate()
}

func initApp(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := applyOverrides(cfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.Debugf("[APP] Settings: %v", cfg.GetAllSettings())
	}

	container, err = newApplication(cmd.Context(), cfg)
	return err
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// stopApp releases the store and waits for pending background refreshes.
func stopApp() {
	if container == nil {
		return
	}
	logrus.Info("[APP] Stopping application...")
	container.Close()
	container = nil
}
