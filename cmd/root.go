package cmd

import (
	"fmt"
	"os"

	"github.com/portfolio-cms/apiserver/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	logLevel  string
	logFormat string

	rootCmd = &cobra.Command{
		Use:   "portfolio",
		Short: "Portfolio CMS backend",
		Long: `Portfolio CMS backend: the public API for projects, blog posts and the
contact form, plus the admin tooling around it.`,
		SilenceUsage: true,
	}
)

// Execute runs the root command. It is called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error) (default: $LOG_LEVEL or info)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console) (default: $LOG_FORMAT or json)")
}

// loadConfig reads the environment and builds the process logger, letting
// the global flags override the logging settings.
func loadConfig() (config.Config, zerolog.Logger) {
	cfg := config.LoadConfig()
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, config.NewLogger(cfg.Logging)
}
