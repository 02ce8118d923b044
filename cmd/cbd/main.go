package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sc4plugins/custom-budget-departments/internal/cli"
	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/sc4plugins/custom-budget-departments/internal/config"
	"github.com/sc4plugins/custom-budget-departments/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "dev"
	cfg     config.Config
	rootCmd = &cobra.Command{
		Use:   "cbd",
		Short: "Custom budget departments for building plugins",
		Long: `cbd replays building scenarios through the custom budget department
engine, keeps the saved department registry of each city and renders the
resulting budget panel.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/cbd/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("db-driver", storage.DriverSQLite, "database driver (sqlite3, postgres)")
	rootCmd.PersistentFlags().String("db", "", "database path or connection URL")

	// Bind flags to viper
	_ = viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag(config.KeyDatabaseDriver, rootCmd.PersistentFlags().Lookup("db-driver"))

	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(inspectCmd())
	rootCmd.AddCommand(citiesCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		msg := err.Error()
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			msg = userErr.UserMessage
		}
		fmt.Fprintln(os.Stderr, cli.FormatError(msg))
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		// Search for config in standard locations
		viper.AddConfigPath(fmt.Sprintf("%s/.config/cbd", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CBD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if db, _ := cmd.Flags().GetString("db"); db != "" {
		viper.Set(config.KeyDatabaseDSN, db)
	}

	loaded, err := config.Load(viper.GetViper())
	if err != nil {
		return common.NewUserError("Invalid configuration", err)
	}
	cfg = loaded

	level, err := common.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if err := common.SetupLogger(level, cfg.LogFormat); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	cmd.SetContext(common.WithLogger(cmd.Context(), slog.Default()))

	return nil
}

// openStore opens and migrates the configured database.
func openStore(ctx context.Context) (*storage.Store, error) {
	store, err := storage.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, common.NewUserError("Could not open the city database", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return store, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			slog.Info("cbd version", "version", version)
		},
	}
}
