package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <session-id>",
	Short: "Show the session state and who has submitted",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	workshop, err := openWorkshop(cmd.Context())
	if err != nil {
		return err
	}
	defer workshop.Close()

	ctx := cmd.Context()
	session, err := workshop.Module.Handler.GetSessionHandler(ctx, args[0])
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	topics, err := workshop.Module.Handler.ListTopicsHandler(ctx, args[0])
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}
	roster, err := workshop.Module.Handler.StatusHandler(ctx, args[0])
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session:   %s (%s)\n", session.Session.Name, session.Session.SessionID)
	fmt.Fprintf(out, "State:     %s\n", session.Session.State)
	fmt.Fprintf(out, "Topics:    %d (all locked: %t)\n", len(topics.Items), topics.AllTopicsLocked)
	fmt.Fprintf(out, "Submitted: %d of %d\n\n", roster.Submitted, roster.Total)

	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Participant", "Status", "Joined", "Submitted"})
	for _, participant := range roster.Participants {
		tw.AppendRow(table.Row{participant.DisplayName, participant.Status, participant.JoinedAt, participant.SubmittedAt})
	}
	tw.Render()
	return nil
}
