package workshopservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"ideaforge/contexts/ideation/workshop-service/adapters/export"
	sqliteadapter "ideaforge/contexts/ideation/workshop-service/adapters/sqlite"
	httptransport "ideaforge/contexts/ideation/workshop-service/transport/http"
)

func newSQLiteModule(t *testing.T) Module {
	t.Helper()
	module, store, err := NewSQLiteModule(sqliteadapter.MemoryPath, nil, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return module
}

// TestWorkshopScenario walks one session from setup to final: topics are
// locked, two participants contribute, votes are cast and the final report
// ranks the result without exposing identities.
func TestWorkshopScenario(t *testing.T) {
	ctx := context.Background()
	h := newSQLiteModule(t).Handler
	const (
		alice = "alice@example.com"
		bob   = "bob@example.com"
		carol = "carol@example.com"
	)

	created, err := h.CreateSessionHandler(ctx, alice, httptransport.CreateSessionRequest{Name: "Q3 ideas", DisplayName: "Alice"})
	require.NoError(t, err)
	sessionID := created.Session.SessionID

	var topicIDs []string
	for _, name := range []string{"Onboarding", "Billing"} {
		topic, err := h.AddTopicHandler(ctx, alice, sessionID, httptransport.AddTopicRequest{Domain: "Product", Name: name})
		require.NoError(t, err)
		topicIDs = append(topicIDs, topic.Topic.TopicID)
	}
	listed, err := h.ListTopicsHandler(ctx, sessionID)
	require.NoError(t, err)
	require.False(t, listed.AllTopicsLocked)

	for _, topicID := range topicIDs {
		_, err := h.LockTopicHandler(ctx, alice, sessionID, topicID)
		require.NoError(t, err)
	}
	listed, err = h.ListTopicsHandler(ctx, sessionID)
	require.NoError(t, err)
	require.True(t, listed.AllTopicsLocked)
	require.Equal(t, "Onboarding", listed.Items[0].Name)

	_, err = h.SetStateHandler(ctx, alice, sessionID, httptransport.SetStateRequest{State: "contributing"})
	require.NoError(t, err)

	for participant, name := range map[string]string{bob: "Bob", carol: "Carol"} {
		joined, err := h.JoinHandler(ctx, participant, sessionID, httptransport.JoinRequest{DisplayName: name})
		require.NoError(t, err)
		require.True(t, joined.Created)
	}

	saved, err := h.SubmitContributionsHandler(ctx, bob, sessionID, httptransport.SubmitContributionsRequest{
		Items: []httptransport.ContributionItemDTO{
			{TopicID: topicIDs[0], CurrentStatus: "manual", Reimagination: "self-serve"},
			{TopicID: topicIDs[1], CurrentStatus: "invoices by mail"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, saved.Saved)
	_, err = h.SubmitContributionsHandler(ctx, carol, sessionID, httptransport.SubmitContributionsRequest{
		Items: []httptransport.ContributionItemDTO{{TopicID: topicIDs[1], CurrentStatus: "card only"}},
	})
	require.NoError(t, err)

	status, err := h.StatusHandler(ctx, sessionID)
	require.NoError(t, err)
	require.Equal(t, 3, status.Total)
	require.Equal(t, 2, status.Submitted)
	require.Equal(t, 1, status.Pending)

	_, err = h.SetStateHandler(ctx, alice, sessionID, httptransport.SetStateRequest{State: "voting"})
	require.NoError(t, err)

	board, err := h.ListContributionsHandler(ctx, carol, sessionID, true)
	require.NoError(t, err)
	require.Len(t, board.Items, 2)
	billing := board.Items[1].Contributions
	require.Len(t, billing, 2)
	var bobBilling, carolBilling string
	for _, item := range billing {
		if item.Own {
			carolBilling = item.ContributionID
		} else {
			bobBilling = item.ContributionID
		}
	}
	require.NotEmpty(t, bobBilling)
	require.NotEmpty(t, carolBilling)

	for _, voter := range []string{alice, carol} {
		_, err := h.CastVoteHandler(ctx, voter, sessionID, bobBilling)
		require.NoError(t, err)
	}
	vote, err := h.CastVoteHandler(ctx, bob, sessionID, carolBilling)
	require.NoError(t, err)
	require.Equal(t, 1, vote.Votes)

	count, err := h.CountVotesHandler(ctx, sessionID, bobBilling)
	require.NoError(t, err)
	require.Equal(t, 2, count.Votes)

	for _, state := range []string{"voting_locked", "final"} {
		_, err := h.SetStateHandler(ctx, alice, sessionID, httptransport.SetStateRequest{State: state})
		require.NoError(t, err)
	}

	raw, err := h.ReportHandler(ctx, sessionID, export.FormatJSON)
	require.NoError(t, err)
	for _, identity := range []string{alice, bob, carol} {
		require.False(t, strings.Contains(string(raw), identity), "report leaked %s", identity)
	}

	var report struct {
		State  string `json:"state"`
		Topics []struct {
			Name          string `json:"name"`
			TotalVotes    int    `json:"total_votes"`
			Contributions []struct {
				ContributionID string `json:"contribution_id"`
				Votes          int    `json:"votes"`
			} `json:"contributions"`
		} `json:"topics"`
	}
	require.NoError(t, json.Unmarshal(raw, &report))
	require.Equal(t, "final", report.State)
	require.Len(t, report.Topics, 2)
	require.Equal(t, "Billing", report.Topics[0].Name)
	require.Equal(t, 3, report.Topics[0].TotalVotes)
	require.Equal(t, bobBilling, report.Topics[0].Contributions[0].ContributionID)
	require.Equal(t, "Onboarding", report.Topics[1].Name)
	require.Equal(t, 0, report.Topics[1].TotalVotes)
}
