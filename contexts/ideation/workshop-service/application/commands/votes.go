package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	application "ideaforge/contexts/ideation/workshop-service/application"
	"ideaforge/contexts/ideation/workshop-service/domain/entities"
	domainerrors "ideaforge/contexts/ideation/workshop-service/domain/errors"
	"ideaforge/contexts/ideation/workshop-service/domain/services"
	"ideaforge/contexts/ideation/workshop-service/ports"
)

type CastVoteCommand struct {
	SessionID      string
	ContributionID string
	VoterID        string
}

type CastVoteResult struct {
	ContributionID string
	Votes          int
}

// VoteUseCase records endorsements. A voter endorses a contribution at most
// once and never their own.
type VoteUseCase struct {
	Store   ports.Store
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Metrics ports.Metrics
	Logger  *slog.Logger
}

// CastVote evaluates its preconditions in a fixed order so an earlier failure
// never reveals anything about a later check: session, voting state, voter
// membership, contribution, self vote, duplicate. The application-level
// duplicate check is backed by the store's (contribution, voter) uniqueness
// constraint, which the adapters translate to ErrDuplicateVote.
func (uc VoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	metrics := application.ResolveMetrics(uc.Metrics)
	sessionID := strings.TrimSpace(cmd.SessionID)
	contributionID := strings.TrimSpace(cmd.ContributionID)
	voterID := entities.NormalizeParticipantID(cmd.VoterID)
	if voterID == "" {
		return CastVoteResult{}, fmt.Errorf("%w: voter id is required", domainerrors.ErrInvalidInput)
	}

	var result CastVoteResult
	err := uc.Store.Atomic(ctx, func(ctx context.Context, tx ports.Tx) error {
		session, err := tx.GetSession(ctx, sessionID, ports.LockShare)
		if err != nil {
			return err
		}
		if !services.AllowsVoting(session.State) {
			return fmt.Errorf("%w: session state is %s", domainerrors.ErrVotingNotEnabled, session.State)
		}
		if _, err := tx.GetParticipant(ctx, sessionID, voterID); err != nil {
			return err
		}
		contribution, err := tx.GetContribution(ctx, sessionID, contributionID)
		if err != nil {
			return err
		}
		if contribution.ParticipantID == voterID {
			return domainerrors.ErrSelfVoteForbidden
		}
		exists, err := tx.HasVote(ctx, contributionID, voterID)
		if err != nil {
			return err
		}
		if exists {
			return domainerrors.ErrDuplicateVote
		}

		voteID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		now := resolveNow(uc.Clock)
		if err := tx.InsertVote(ctx, entities.Vote{
			VoteID:         voteID,
			SessionID:      sessionID,
			ContributionID: contributionID,
			VoterID:        voterID,
			CreatedAt:      now,
		}); err != nil {
			return err
		}
		count, err := tx.CountVotes(ctx, contributionID)
		if err != nil {
			return err
		}
		result = CastVoteResult{ContributionID: contributionID, Votes: count}
		return appendEvent(ctx, tx, uc.IDGen, "vote.cast", sessionID, now, map[string]any{
			"contribution_id": contributionID,
			"votes":           count,
		})
	})
	if err != nil {
		kind := domainerrors.KindOf(err)
		metrics.VoteRejected(string(kind))
		level := slog.LevelWarn
		if kind == domainerrors.KindInternal && !errors.Is(err, context.Canceled) {
			level = slog.LevelError
		}
		logger.Log(ctx, level, "vote rejected",
			"event", "workshop_vote_rejected",
			"module", "ideation/workshop-service",
			"layer", "application",
			"session_id", sessionID,
			"contribution_id", contributionID,
			"kind", string(kind),
			"error", err.Error(),
		)
		return CastVoteResult{}, err
	}

	metrics.VoteCast()
	logger.Info("vote cast",
		"event", "workshop_vote_cast",
		"module", "ideation/workshop-service",
		"layer", "application",
		"session_id", sessionID,
		"contribution_id", contributionID,
		"votes", result.Votes,
	)
	return result, nil
}
