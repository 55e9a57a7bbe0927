// Package cmd implements the CLI commands for cosigner.
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xdg/cosigner/internal/clog"
	"github.com/xdg/cosigner/internal/config"
	"github.com/xdg/cosigner/internal/term"
	"github.com/xdg/cosigner/internal/version"
)

var (
	debugFlag  bool
	silentFlag bool
	configFlag string

	// now is the clock every command uses; tests replace it.
	now = time.Now
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "cosigner",
	Short: "Local authorization policy for paired signing sessions",
	Long: `Cosigner decides whether a signing request from a paired session
(SSH login, git commit or tag signature, team log decryption, U2F) may be
approved automatically, must be shown to a human, or is denied.

Decisions follow each session's settings: temporary "allow all" windows per
category, temporary per-host SSH exceptions and "never ask". A linked team
can mandate an approval duration, which disables never ask.`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupOutput,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&silentFlag, "silent", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default "+config.GlobalConfigPath()+")")
}

// Execute runs the root command and returns any error.
func Execute() error {
	return rootCmd.Execute()
}

func setupOutput(cmd *cobra.Command, args []string) error {
	term.SetSilent(silentFlag)
	if debugFlag {
		clog.SetLevel(clog.LevelDebug)
	}
	return nil
}

// loadConfig loads the config named by --config, or the default one, and
// points the operational log at its log file.
func loadConfig() (*config.GlobalConfig, error) {
	var (
		cfg *config.GlobalConfig
		err error
	)
	if configFlag != "" {
		cfg, err = config.LoadGlobalConfigFile(configFlag)
	} else {
		cfg, err = config.LoadGlobalConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := clog.ParseLevel(cfg.Log.Level)
	if debugFlag {
		level = clog.LevelDebug
	}
	if err := clog.Configure(cfg.Log.File, level, false); err != nil {
		term.Warn("cannot open log file %s: %v", cfg.Log.File, err)
	}
	return cfg, nil
}
