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

type JoinCommand struct {
	SessionID     string
	ParticipantID string
	DisplayName   string
	Contact       string
}

type JoinResult struct {
	Participant entities.Participant
	Created     bool
}

// RosterUseCase enrols participants. Joining is idempotent: a repeated join
// returns the stored roster row unchanged.
type RosterUseCase struct {
	Store  ports.Store
	Clock  ports.Clock
	Logger *slog.Logger
}

func (uc RosterUseCase) Join(ctx context.Context, cmd JoinCommand) (JoinResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	participantID := entities.NormalizeParticipantID(cmd.ParticipantID)
	if participantID == "" {
		return JoinResult{}, fmt.Errorf("%w: participant id is required", domainerrors.ErrInvalidInput)
	}

	var result JoinResult
	err := uc.Store.Atomic(ctx, func(ctx context.Context, tx ports.Tx) error {
		session, err := tx.GetSession(ctx, strings.TrimSpace(cmd.SessionID), ports.LockShare)
		if err != nil {
			return err
		}
		if !services.AllowsJoin(session.State) {
			return domainerrors.ErrSessionFinalized
		}
		displayName := strings.TrimSpace(cmd.DisplayName)
		if displayName == "" {
			roster, err := tx.ListParticipants(ctx, session.SessionID)
			if err != nil {
				return err
			}
			displayName = entities.FallbackDisplayName(len(roster) + 1)
		}
		created, err := tx.InsertParticipant(ctx, entities.Participant{
			SessionID:     session.SessionID,
			ParticipantID: participantID,
			DisplayName:   displayName,
			Contact:       defaultString(cmd.Contact, participantID),
			Status:        entities.ParticipantStatusJoined,
			JoinedAt:      resolveNow(uc.Clock),
		})
		if err != nil {
			return err
		}
		participant, err := tx.GetParticipant(ctx, session.SessionID, participantID)
		if err != nil {
			return err
		}
		result = JoinResult{Participant: participant, Created: created}
		return nil
	})
	if err != nil {
		logger.Warn("participant join failed",
			"event", "workshop_participant_join_failed",
			"module", "ideation/workshop-service",
			"layer", "application",
			"session_id", strings.TrimSpace(cmd.SessionID),
			"participant_id", participantID,
			"error", err.Error(),
		)
		return JoinResult{}, err
	}
	if result.Created {
		logger.Info("participant joined",
			"event", "workshop_participant_joined",
			"module", "ideation/workshop-service",
			"layer", "application",
			"session_id", result.Participant.SessionID,
			"participant_id", participantID,
		)
	}
	return result, nil
}
