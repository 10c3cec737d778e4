package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/tabex/internal/config"
	"github.com/KaramelBytes/tabex/internal/dataset"
	"github.com/KaramelBytes/tabex/internal/loader"
	"github.com/KaramelBytes/tabex/internal/logging"
	"github.com/KaramelBytes/tabex/internal/source"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logLevel  string
	logFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "tabex",
	Short: "Tabex: explore CSV and XLSX tables from the terminal or over HTTP",
	Long: `Tabex loads a CSV or XLSX table, profiles it, filters rows by substring,
and turns column selections into chart descriptors. Every operation is also
available through the HTTP API started by 'tabex serve'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tabex/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text|json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults so read-only commands still work
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c
	applyLogFlags()
}

// applyLogFlags layers --log-level, --log-format and --debug over cfg and
// configures the default logger.
func applyLogFlags() {
	f := rootCmd.PersistentFlags()
	if f.Changed("log-level") && logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if f.Changed("log-format") && logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
}

// settings returns the loaded configuration, or defaults when commands run
// without going through Execute (tests call rootCmd directly).
func settings() *cfgpkg.Global {
	if cfg == nil {
		cfg = cfgpkg.Defaults()
	}
	return cfg
}

// loadTable reads location (path or URL) and parses it into a table.
func loadTable(ctx context.Context, location string) (*dataset.Table, string, error) {
	c := settings()
	data, name, err := source.NewReader(c.MaxUploadBytes()).Read(ctx, location)
	if err != nil {
		return nil, "", err
	}
	t, err := loader.LoadWithOptions(data, name, loader.Options{MaxRows: c.MaxRows})
	if err != nil {
		return nil, "", err
	}
	rows, cols := t.Shape()
	slog.Debug("table loaded", "source", location, "rows", rows, "cols", cols)
	return t, name, nil
}
