package queries

import (
	"context"
	"log/slog"
	"strings"

	"ideaforge/contexts/ideation/workshop-service/ports"
)

type VoteCountUseCase struct {
	Contributions ports.ContributionRepository
	Votes         ports.VoteRepository
	Logger        *slog.Logger
}

// CountFor returns the live vote count of one contribution in the session.
func (uc VoteCountUseCase) CountFor(ctx context.Context, sessionID string, contributionID string) (int, error) {
	contribution, err := uc.Contributions.GetContribution(ctx, strings.TrimSpace(sessionID), strings.TrimSpace(contributionID))
	if err != nil {
		return 0, err
	}
	return uc.Votes.CountVotes(ctx, contribution.ContributionID)
}
