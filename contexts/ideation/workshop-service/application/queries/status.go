package queries

import (
	"context"
	"log/slog"
	"strings"

	application "ideaforge/contexts/ideation/workshop-service/application"
	"ideaforge/contexts/ideation/workshop-service/domain/entities"
	"ideaforge/contexts/ideation/workshop-service/ports"
)

type RosterStatusUseCase struct {
	Sessions     ports.SessionRepository
	Participants ports.ParticipantRepository
	Logger       *slog.Logger
}

// Execute aggregates the roster. The moderator counts as a participant.
func (uc RosterStatusUseCase) Execute(ctx context.Context, sessionID string) (entities.RosterStatus, error) {
	logger := application.ResolveLogger(uc.Logger)
	sessionID = strings.TrimSpace(sessionID)
	if _, err := uc.Sessions.GetSession(ctx, sessionID, ports.LockNone); err != nil {
		return entities.RosterStatus{}, err
	}
	participants, err := uc.Participants.ListParticipants(ctx, sessionID)
	if err != nil {
		return entities.RosterStatus{}, err
	}
	status := entities.RosterStatus{
		Total:        len(participants),
		Participants: participants,
	}
	for _, participant := range participants {
		if participant.Status == entities.ParticipantStatusSubmitted {
			status.Submitted++
		}
	}
	status.Pending = status.Total - status.Submitted
	logger.Debug("roster status computed",
		"event", "workshop_roster_status_computed",
		"module", "ideation/workshop-service",
		"layer", "application",
		"session_id", sessionID,
		"total", status.Total,
		"submitted", status.Submitted,
	)
	return status, nil
}
