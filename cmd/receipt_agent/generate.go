package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/donation-receipts/internal/config"
	"github.com/jonathan/donation-receipts/internal/pipeline"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate receipts for every unprocessed donation",
	Long: `Fetches donor rows, skips rows already marked processed, and produces a
receipt for each remaining row. In local mode the Word template is filled and
converted to PDF on this machine; in remote mode the generation API produces
the receipt. Exits non-zero only when the run itself fails (data source
unreachable, template missing); individual record failures are reported in
the summary.`,
	RunE: runGenerate,
}

var (
	generateMode      string
	generateTemplate  string
	generateNoMark    bool
	generateXLSX      string
	generateXLSXSheet string
	generateList      bool
)

func init() {
	generateCmd.Flags().StringVar(&generateMode, "mode", "", "Generation mode: local or remote (overrides config)")
	generateCmd.Flags().StringVarP(&generateTemplate, "template", "t", "", "Path to .docx template (overrides config)")
	generateCmd.Flags().BoolVar(&generateNoMark, "no-mark", false, "Do not mark rows as processed")
	generateCmd.Flags().StringVar(&generateXLSX, "xlsx", "", "Read rows from a local .xlsx export instead of the data API")
	generateCmd.Flags().StringVar(&generateXLSXSheet, "sheet", "", "Sheet name for --xlsx (default: first sheet)")
	generateCmd.Flags().BoolVar(&generateList, "list", false, "Only fetch and list the records that would be generated")

	rootCmd.AddCommand(generateCmd)
}

// applyGenerateFlags copies command-line overrides onto the loaded config.
func applyGenerateFlags() {
	if generateMode != "" {
		cfg.Mode = generateMode
	}
	if generateTemplate != "" {
		cfg.TemplatePath = generateTemplate
	}
	if generateXLSX != "" {
		cfg.Source.Kind = config.SourceXLSX
		cfg.Source.XLSXPath = generateXLSX
	}
	if generateXLSXSheet != "" {
		cfg.Source.Sheet = generateXLSXSheet
	}
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	applyGenerateFlags()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if generateList {
		return listPending(ctx, cmd)
	}

	opts, err := buildRunOptions(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if generateNoMark {
		opts.Notifier = nil
	}

	_, err = pipeline.Run(ctx, opts)
	return err
}

// listPending prints the records a run would generate without producing
// anything.
func listPending(ctx context.Context, cmd *cobra.Command) error {
	src, err := newSource(cfg)
	if err != nil {
		return err
	}
	pending, err := pipeline.Pending(ctx, src)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%d of %d records pending\n", len(pending.Records), pending.Total())
	for _, rec := range pending.Records {
		_, _ = fmt.Fprintf(out, "  [%d] %s %s %s\n", rec.Index, rec.SerialNo, rec.Date, rec.Name)
	}
	return nil
}
