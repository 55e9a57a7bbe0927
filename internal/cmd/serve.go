package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xdg/cosigner/internal/clog"
	"github.com/xdg/cosigner/internal/expcache"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background sweeper",
	Long: `Run in the background and remove expired temporary approvals.

Runs the global migrations once, then sweeps every session's host cache
and the in-app notification cache on the configured schedule
(sweep.schedule). Logs go to the log file only. Blocks until interrupted
(SIGINT/SIGTERM).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// Daemon mode: logs go to file only, not stderr.
	clog.SetDaemonMode(true)
	defer clog.SetDaemonMode(false)

	if _, _, err := migrateAll(a); err != nil {
		clog.Error("migration failed: %v", err)
	}

	sweeper := expcache.NewSweeper(a.cfg.Sweep.Schedule, a.allCaches)
	sweeper.Sweep()
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("failed to start sweeper: %w", err)
	}
	clog.Info("serving (sweep schedule %s)", a.cfg.Sweep.Schedule)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		clog.Info("received %s, shutting down", sig)
	case <-cmd.Context().Done():
		clog.Info("context done, shutting down")
	}

	sweeper.Stop()
	return nil
}
