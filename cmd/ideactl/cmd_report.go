package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ideaforge/contexts/ideation/workshop-service/adapters/export"
)

var reportFlags struct {
	format string
	output string
}

var reportCmd = &cobra.Command{
	Use:   "report <session-id>",
	Short: "Render the ranked session report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func init() {
	f := reportCmd.Flags()
	f.StringVarP(&reportFlags.format, "format", "f", "text", "Output format: json, text, markdown or csv")
	f.StringVarP(&reportFlags.output, "output", "o", "", "Write to file instead of stdout")
}

func runReport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(reportFlags.format)
	if err != nil {
		return err
	}

	workshop, err := openWorkshop(cmd.Context())
	if err != nil {
		return err
	}
	defer workshop.Close()

	body, err := workshop.Module.Handler.ReportHandler(cmd.Context(), args[0], format)
	if err != nil {
		return fmt.Errorf("compile report: %w", err)
	}
	if reportFlags.output == "" {
		_, err = cmd.OutOrStdout().Write(body)
		return err
	}
	if err := os.WriteFile(reportFlags.output, body, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", reportFlags.output)
	return nil
}
