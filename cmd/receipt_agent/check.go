package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/donation-receipts/internal/conversion"
	"github.com/jonathan/donation-receipts/internal/observability"
	"github.com/jonathan/donation-receipts/internal/rendering"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the receipt template and PDF converters",
	Long:  "Loads the .docx template, lists its placeholders, and reports which PDF converters can run on this machine.",
	RunE:  runCheck,
}

var checkTemplate string

func init() {
	checkCmd.Flags().StringVarP(&checkTemplate, "template", "t", "", "Path to .docx template (overrides config)")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	if checkTemplate != "" {
		cfg.TemplatePath = checkTemplate
	}
	printer := observability.NewPrinter(cmd.OutOrStdout())

	tmpl, err := rendering.Load(cfg.TemplatePath)
	if err != nil {
		return err
	}
	printer.PrintTemplateFields(tmpl.Path(), tmpl.Fields(), tmpl.UnknownFields())

	chain := newConverter(cfg)
	var names []string
	var available []bool
	for _, c := range chain.Converters() {
		names = append(names, c.Name())
		available = append(available, c.Available())
	}
	printer.PrintConverters(names, available)

	if !chain.Available() {
		printer.PrintInstallHint(conversion.InstallHint)
	}
	if err := cfg.Validate(); err != nil {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "⚠️ %v\n", err)
	}
	return nil
}
