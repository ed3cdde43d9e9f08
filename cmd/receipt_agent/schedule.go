package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/donation-receipts/internal/pipeline"
	"github.com/jonathan/donation-receipts/internal/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run generate on a cron schedule",
	Long: `Runs the generate pipeline on a cron schedule until interrupted. Accepts
five-field cron expressions ("0 9 * * *") and descriptors ("@hourly",
"@every 30m"). A run still in progress when the next one is due causes that
activation to be skipped.`,
	RunE: runSchedule,
}

var scheduleSpec string

func init() {
	scheduleCmd.Flags().StringVar(&scheduleSpec, "cron", "@hourly", "Cron schedule")

	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts, err := buildRunOptions(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	s, err := scheduler.New(scheduleSpec, func(ctx context.Context) error {
		summary, err := pipeline.Run(ctx, opts)
		if err != nil {
			return err
		}
		zap.L().Info("scheduled run summary",
			zap.String("run_id", summary.RunID.String()),
			zap.Int("succeeded", summary.Counts.Succeeded),
			zap.Int("failed", summary.Counts.Failed),
		)
		return nil
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return s.Run(ctx)
}
