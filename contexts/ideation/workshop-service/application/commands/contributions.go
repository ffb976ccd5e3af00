package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "ideaforge/contexts/ideation/workshop-service/application"
	"ideaforge/contexts/ideation/workshop-service/domain/entities"
	domainerrors "ideaforge/contexts/ideation/workshop-service/domain/errors"
	"ideaforge/contexts/ideation/workshop-service/domain/services"
	"ideaforge/contexts/ideation/workshop-service/ports"
)

type SubmitAllCommand struct {
	SessionID     string
	ParticipantID string
	Items         []entities.ContributionItem
}

// ContributionUseCase accepts a participant's whole submission batch.
type ContributionUseCase struct {
	Store   ports.Store
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Metrics ports.Metrics
	Logger  *slog.Logger
}

// SubmitAll upserts one contribution per item keyed on (session, topic,
// participant) and flips the participant to submitted. The batch and the
// status change commit together or not at all.
func (uc ContributionUseCase) SubmitAll(ctx context.Context, cmd SubmitAllCommand) (int, error) {
	logger := application.ResolveLogger(uc.Logger)
	sessionID := strings.TrimSpace(cmd.SessionID)
	participantID := entities.NormalizeParticipantID(cmd.ParticipantID)
	logger.Info("contribution batch processing started",
		"event", "workshop_contribution_batch_started",
		"module", "ideation/workshop-service",
		"layer", "application",
		"session_id", sessionID,
		"participant_id", participantID,
		"item_count", len(cmd.Items),
	)
	if participantID == "" {
		return 0, fmt.Errorf("%w: participant id is required", domainerrors.ErrInvalidInput)
	}

	err := uc.Store.Atomic(ctx, func(ctx context.Context, tx ports.Tx) error {
		session, err := tx.GetSession(ctx, sessionID, ports.LockShare)
		if err != nil {
			return err
		}
		if !services.AllowsContributions(session.State) {
			return fmt.Errorf("%w: submissions are closed, session is %s",
				domainerrors.ErrInvalidSessionState, session.State)
		}
		if len(cmd.Items) == 0 {
			return domainerrors.ErrEmptySubmission
		}
		if _, err := tx.GetParticipant(ctx, sessionID, participantID); err != nil {
			return err
		}

		topics, err := tx.ListTopics(ctx, sessionID)
		if err != nil {
			return err
		}
		known := make(map[string]struct{}, len(topics))
		for _, topic := range topics {
			known[topic.TopicID] = struct{}{}
		}

		now := resolveNow(uc.Clock)
		for _, item := range cmd.Items {
			topicID := strings.TrimSpace(item.TopicID)
			if topicID == "" {
				return fmt.Errorf("%w: every item needs a topic id", domainerrors.ErrInvalidInput)
			}
			if _, ok := known[topicID]; !ok {
				return fmt.Errorf("%w: %s", domainerrors.ErrTopicNotFound, topicID)
			}
			contributionID, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return err
			}
			if _, err := tx.UpsertContribution(ctx, entities.Contribution{
				ContributionID: contributionID,
				SessionID:      sessionID,
				TopicID:        topicID,
				ParticipantID:  participantID,
				CurrentStatus:  strings.TrimSpace(item.CurrentStatus),
				MinorImpact:    strings.TrimSpace(item.MinorImpact),
				Disruption:     strings.TrimSpace(item.Disruption),
				Reimagination:  strings.TrimSpace(item.Reimagination),
				SubmittedAt:    now,
			}); err != nil {
				return err
			}
		}
		if err := tx.MarkSubmitted(ctx, sessionID, participantID, now); err != nil {
			return err
		}
		return appendEvent(ctx, tx, uc.IDGen, "contribution.batch_submitted", sessionID, now, map[string]any{
			"participant_id": participantID,
			"item_count":     len(cmd.Items),
		})
	})
	if err != nil {
		logger.Warn("contribution batch rejected",
			"event", "workshop_contribution_batch_rejected",
			"module", "ideation/workshop-service",
			"layer", "application",
			"session_id", sessionID,
			"participant_id", participantID,
			"error", err.Error(),
		)
		return 0, err
	}

	application.ResolveMetrics(uc.Metrics).ContributionsSubmitted(len(cmd.Items))
	logger.Info("contribution batch saved",
		"event", "workshop_contribution_batch_saved",
		"module", "ideation/workshop-service",
		"layer", "application",
		"session_id", sessionID,
		"participant_id", participantID,
		"saved_count", len(cmd.Items),
	)
	return len(cmd.Items), nil
}
