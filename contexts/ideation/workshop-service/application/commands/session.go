package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "ideaforge/contexts/ideation/workshop-service/application"
	"ideaforge/contexts/ideation/workshop-service/domain/entities"
	domainerrors "ideaforge/contexts/ideation/workshop-service/domain/errors"
	"ideaforge/contexts/ideation/workshop-service/domain/services"
	"ideaforge/contexts/ideation/workshop-service/ports"
)

type CreateSessionCommand struct {
	Name        string
	ModeratorID string
	DisplayName string
	Contact     string
}

type SetStateCommand struct {
	SessionID string
	ActorID   string
	State     string
}

type DeleteSessionCommand struct {
	SessionID string
	ActorID   string
}

// SessionUseCase owns the session lifecycle: creation with moderator
// enrolment, moderator-gated state transitions and cascading deletion.
type SessionUseCase struct {
	Store   ports.Store
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Metrics ports.Metrics
	Logger  *slog.Logger
}

// CreateSession stores a new session in setup state and enrols the moderator
// as its first participant in the same transaction.
func (uc SessionUseCase) CreateSession(ctx context.Context, cmd CreateSessionCommand) (entities.Session, error) {
	logger := application.ResolveLogger(uc.Logger)
	name := strings.TrimSpace(cmd.Name)
	moderatorID := entities.NormalizeParticipantID(cmd.ModeratorID)
	if name == "" || moderatorID == "" {
		logger.Warn("session create validation failed",
			"event", "workshop_session_create_validation_failed",
			"module", "ideation/workshop-service",
			"layer", "application",
			"moderator_id", moderatorID,
		)
		return entities.Session{}, fmt.Errorf("%w: session name and moderator id are required", domainerrors.ErrInvalidInput)
	}

	now := uc.now()
	sessionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Session{}, err
	}
	session := entities.Session{
		SessionID:   sessionID,
		Name:        name,
		ModeratorID: moderatorID,
		State:       entities.SessionStateSetup,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	moderator := entities.Participant{
		SessionID:     sessionID,
		ParticipantID: moderatorID,
		DisplayName:   defaultString(cmd.DisplayName, entities.FallbackDisplayName(1)),
		Contact:       defaultString(cmd.Contact, moderatorID),
		Status:        entities.ParticipantStatusJoined,
		JoinedAt:      now,
	}

	err = uc.Store.Atomic(ctx, func(ctx context.Context, tx ports.Tx) error {
		if err := tx.CreateSession(ctx, session); err != nil {
			return err
		}
		if _, err := tx.InsertParticipant(ctx, moderator); err != nil {
			return err
		}
		return appendEvent(ctx, tx, uc.IDGen, "session.created", sessionID, now, map[string]any{
			"name":  session.Name,
			"state": string(session.State),
		})
	})
	if err != nil {
		return entities.Session{}, err
	}

	application.ResolveMetrics(uc.Metrics).SessionCreated()
	logger.Info("session created",
		"event", "workshop_session_created",
		"module", "ideation/workshop-service",
		"layer", "application",
		"session_id", session.SessionID,
		"moderator_id", session.ModeratorID,
	)
	return session, nil
}

// SetState moves the session to the requested state. Only the moderator may
// do so, and only one step forward at a time; leaving setup additionally
// requires every topic to be locked.
func (uc SessionUseCase) SetState(ctx context.Context, cmd SetStateCommand) (entities.Session, error) {
	logger := application.ResolveLogger(uc.Logger)
	requested, err := services.ParseState(cmd.State)
	if err != nil {
		logger.Warn("session state change rejected",
			"event", "workshop_session_state_unknown",
			"module", "ideation/workshop-service",
			"layer", "application",
			"session_id", strings.TrimSpace(cmd.SessionID),
			"requested_state", strings.TrimSpace(cmd.State),
		)
		return entities.Session{}, err
	}

	var (
		updated  entities.Session
		previous entities.SessionState
		changed  bool
	)
	err = uc.Store.Atomic(ctx, func(ctx context.Context, tx ports.Tx) error {
		session, err := tx.GetSession(ctx, strings.TrimSpace(cmd.SessionID), ports.LockUpdate)
		if err != nil {
			return err
		}
		if !session.IsModerator(cmd.ActorID) {
			return domainerrors.ErrNotAuthorized
		}
		if err := services.ValidateTransition(session.State, requested); err != nil {
			return err
		}
		previous = session.State
		if services.Canonical(session.State) == requested {
			updated = session
			return nil
		}
		if services.Canonical(session.State) == entities.SessionStateSetup {
			topics, err := tx.ListTopics(ctx, session.SessionID)
			if err != nil {
				return err
			}
			if !services.AllTopicsLocked(topics) {
				return domainerrors.ErrTopicsNotLocked
			}
		}

		now := uc.now()
		if err := tx.UpdateSessionState(ctx, session.SessionID, requested, now); err != nil {
			return err
		}
		if err := appendEvent(ctx, tx, uc.IDGen, "session.state_changed", session.SessionID, now, map[string]any{
			"from": string(session.State),
			"to":   string(requested),
		}); err != nil {
			return err
		}
		session.State = requested
		session.UpdatedAt = now
		updated = session
		changed = true
		return nil
	})
	if err != nil {
		logger.Warn("session state change failed",
			"event", "workshop_session_state_change_failed",
			"module", "ideation/workshop-service",
			"layer", "application",
			"session_id", strings.TrimSpace(cmd.SessionID),
			"actor_id", entities.NormalizeParticipantID(cmd.ActorID),
			"requested_state", string(requested),
			"error", err.Error(),
		)
		return entities.Session{}, err
	}
	if changed {
		application.ResolveMetrics(uc.Metrics).StateChanged(previous, updated.State)
		logger.Info("session state changed",
			"event", "workshop_session_state_changed",
			"module", "ideation/workshop-service",
			"layer", "application",
			"session_id", updated.SessionID,
			"from", string(previous),
			"to", string(updated.State),
		)
	}
	return updated, nil
}

// DeleteSession removes the session and everything it owns.
func (uc SessionUseCase) DeleteSession(ctx context.Context, cmd DeleteSessionCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	sessionID := strings.TrimSpace(cmd.SessionID)
	err := uc.Store.Atomic(ctx, func(ctx context.Context, tx ports.Tx) error {
		session, err := tx.GetSession(ctx, sessionID, ports.LockUpdate)
		if err != nil {
			return err
		}
		if !session.IsModerator(cmd.ActorID) {
			return domainerrors.ErrNotAuthorized
		}
		if err := tx.DeleteSession(ctx, sessionID); err != nil {
			return err
		}
		return appendEvent(ctx, tx, uc.IDGen, "session.deleted", sessionID, uc.now(), nil)
	})
	if err != nil {
		return err
	}
	logger.Info("session deleted",
		"event", "workshop_session_deleted",
		"module", "ideation/workshop-service",
		"layer", "application",
		"session_id", sessionID,
	)
	return nil
}

func (uc SessionUseCase) now() time.Time {
	return resolveNow(uc.Clock)
}

func resolveNow(clock ports.Clock) time.Time {
	if clock != nil {
		return clock.Now().UTC()
	}
	return time.Now().UTC()
}

func defaultString(value string, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
