package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"ideaforge/internal/app/bootstrap"
	"ideaforge/internal/platform/config"
	"ideaforge/internal/platform/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	driver     string
	dsn        string
	sqlitePath string
	logLevel   string
}

var rootCmd = &cobra.Command{
	Use:   "ideactl",
	Short: "Operate ideaforge workshop sessions from the command line",
	Long:  "ideactl applies the schema, moves sessions through their lifecycle\nand renders ranked reports against the configured store.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.driver, "driver", "", "Store driver: postgres or sqlite (default from config)")
	f.StringVar(&rootFlags.dsn, "dsn", "", "Postgres DSN (default from config)")
	f.StringVar(&rootFlags.sqlitePath, "sqlite-path", "", "SQLite database file (default from config)")
	f.StringVar(&rootFlags.logLevel, "log-level", "warn", "Log level")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.Version = version
}

// openWorkshop loads config, applies the command-line overrides and opens the
// store. The caller closes the returned workshop.
func openWorkshop(ctx context.Context) (*bootstrap.Workshop, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if rootFlags.driver != "" {
		cfg.StoreDriver = strings.ToLower(strings.TrimSpace(rootFlags.driver))
	}
	if rootFlags.dsn != "" {
		cfg.PostgresDSN = rootFlags.dsn
	}
	if rootFlags.sqlitePath != "" {
		cfg.SQLitePath = rootFlags.sqlitePath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := logging.Init(cfg.ServiceName, rootFlags.logLevel, cfg.LogFormat).With("process", "ideactl")
	return bootstrap.OpenWorkshop(ctx, cfg, nil, logger)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
