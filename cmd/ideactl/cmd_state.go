package main

import (
	"fmt"

	"github.com/spf13/cobra"

	workshophttp "ideaforge/contexts/ideation/workshop-service/transport/http"
)

var stateFlags struct {
	actor string
}

var stateCmd = &cobra.Command{
	Use:   "state <session-id> <state>",
	Short: "Move a session to its next lifecycle state",
	Long:  "Valid states: setup, published (alias contributing), voting, voting_locked, final.\nOnly the session moderator may change the state.",
	Args:  cobra.ExactArgs(2),
	RunE:  runState,
}

func init() {
	f := stateCmd.Flags()
	f.StringVar(&stateFlags.actor, "as", "", "Moderator identity (required)")
	_ = stateCmd.MarkFlagRequired("as")
}

func runState(cmd *cobra.Command, args []string) error {
	workshop, err := openWorkshop(cmd.Context())
	if err != nil {
		return err
	}
	defer workshop.Close()

	resp, err := workshop.Module.Handler.SetStateHandler(cmd.Context(), stateFlags.actor, args[0], workshophttp.SetStateRequest{
		State: args[1],
	})
	if err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Session %s (%s) is now %s\n", resp.Session.SessionID, resp.Session.Name, resp.Session.State)
	return nil
}
