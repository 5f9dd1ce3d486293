package main

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"sentica-backend/internal/config"
	"sentica-backend/internal/logging"
)

// commandContext carries the flags shared by every subcommand.
type commandContext struct {
	configFile string
	jsonOutput bool
	logLevel   string
}

func (c *commandContext) loadConfig() (*config.Config, error) {
	if c.configFile != "" {
		if err := os.Setenv("CONFIG_FILE", c.configFile); err != nil {
			return nil, err
		}
	}
	return config.Load()
}

func (c *commandContext) logger(cfg *config.Config) (*slog.Logger, error) {
	level := cfg.LogLevel
	if c.logLevel != "" {
		level = c.logLevel
	}
	// Logs go to stderr so stdout stays machine-readable.
	return logging.New(logging.Options{Level: level, Format: cfg.LogFormat, Output: os.Stderr})
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "sentica",
		Short:         "YouTube comment sentiment analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFile, "config", "c", "", "TOML configuration file")
	rootCmd.PersistentFlags().BoolVar(&ctx.jsonOutput, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "", "Override LOG_LEVEL")

	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newScoreCommand(ctx))

	return rootCmd
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
