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

type AddTopicCommand struct {
	SessionID string
	ActorID   string
	Domain    string
	Name      string
}

type UpdateTopicCommand struct {
	SessionID string
	ActorID   string
	TopicID   string
	Domain    string
	Name      string
}

type LockTopicCommand struct {
	SessionID string
	ActorID   string
	TopicID   string
}

// TopicUseCase maintains the ordered topic registry of a session.
type TopicUseCase struct {
	Store  ports.Store
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc TopicUseCase) AddTopic(ctx context.Context, cmd AddTopicCommand) (entities.Topic, error) {
	logger := application.ResolveLogger(uc.Logger)
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return entities.Topic{}, fmt.Errorf("%w: topic name is required", domainerrors.ErrInvalidInput)
	}

	var topic entities.Topic
	err := uc.Store.Atomic(ctx, func(ctx context.Context, tx ports.Tx) error {
		// The update lock serialises concurrent adds so sort orders stay unique.
		session, err := uc.loadEditableSession(ctx, tx, cmd.SessionID, cmd.ActorID, ports.LockUpdate)
		if err != nil {
			return err
		}
		sortOrder, err := tx.NextTopicSortOrder(ctx, session.SessionID)
		if err != nil {
			return err
		}
		topicID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		topic = entities.Topic{
			TopicID:   topicID,
			SessionID: session.SessionID,
			Domain:    strings.TrimSpace(cmd.Domain),
			Name:      name,
			SortOrder: sortOrder,
			CreatedAt: resolveNow(uc.Clock),
		}
		return tx.CreateTopic(ctx, topic)
	})
	if err != nil {
		return entities.Topic{}, err
	}
	logger.Info("topic added",
		"event", "workshop_topic_added",
		"module", "ideation/workshop-service",
		"layer", "application",
		"session_id", topic.SessionID,
		"topic_id", topic.TopicID,
		"sort_order", topic.SortOrder,
	)
	return topic, nil
}

// UpdateTopic edits domain and name of a topic that is still unlocked.
func (uc TopicUseCase) UpdateTopic(ctx context.Context, cmd UpdateTopicCommand) (entities.Topic, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return entities.Topic{}, fmt.Errorf("%w: topic name is required", domainerrors.ErrInvalidInput)
	}

	var topic entities.Topic
	err := uc.Store.Atomic(ctx, func(ctx context.Context, tx ports.Tx) error {
		session, err := uc.loadEditableSession(ctx, tx, cmd.SessionID, cmd.ActorID, ports.LockShare)
		if err != nil {
			return err
		}
		topic, err = tx.GetTopic(ctx, session.SessionID, strings.TrimSpace(cmd.TopicID))
		if err != nil {
			return err
		}
		if topic.Locked {
			return domainerrors.ErrTopicLocked
		}
		topic.Domain = strings.TrimSpace(cmd.Domain)
		topic.Name = name
		return tx.UpdateTopic(ctx, topic)
	})
	if err != nil {
		return entities.Topic{}, err
	}
	return topic, nil
}

// LockTopic freezes a topic's domain and name.
func (uc TopicUseCase) LockTopic(ctx context.Context, cmd LockTopicCommand) (entities.Topic, error) {
	logger := application.ResolveLogger(uc.Logger)

	var topic entities.Topic
	err := uc.Store.Atomic(ctx, func(ctx context.Context, tx ports.Tx) error {
		session, err := tx.GetSession(ctx, strings.TrimSpace(cmd.SessionID), ports.LockShare)
		if err != nil {
			return err
		}
		if !session.IsModerator(cmd.ActorID) {
			return domainerrors.ErrNotAuthorized
		}
		topic, err = tx.GetTopic(ctx, session.SessionID, strings.TrimSpace(cmd.TopicID))
		if err != nil {
			return err
		}
		if topic.Locked {
			return domainerrors.ErrTopicAlreadyLocked
		}
		if strings.TrimSpace(topic.Name) == "" {
			return fmt.Errorf("%w: topic name must be set before locking", domainerrors.ErrInvalidInput)
		}
		now := resolveNow(uc.Clock)
		topic.Locked = true
		topic.LockedAt = &now
		if err := tx.UpdateTopic(ctx, topic); err != nil {
			return err
		}
		return appendEvent(ctx, tx, uc.IDGen, "topic.locked", session.SessionID, now, map[string]any{
			"topic_id": topic.TopicID,
		})
	})
	if err != nil {
		logger.Warn("topic lock failed",
			"event", "workshop_topic_lock_failed",
			"module", "ideation/workshop-service",
			"layer", "application",
			"session_id", strings.TrimSpace(cmd.SessionID),
			"topic_id", strings.TrimSpace(cmd.TopicID),
			"error", err.Error(),
		)
		return entities.Topic{}, err
	}
	logger.Info("topic locked",
		"event", "workshop_topic_locked",
		"module", "ideation/workshop-service",
		"layer", "application",
		"session_id", topic.SessionID,
		"topic_id", topic.TopicID,
	)
	return topic, nil
}

func (uc TopicUseCase) loadEditableSession(
	ctx context.Context,
	tx ports.Tx,
	sessionID string,
	actorID string,
	lock ports.LockMode,
) (entities.Session, error) {
	session, err := tx.GetSession(ctx, strings.TrimSpace(sessionID), lock)
	if err != nil {
		return entities.Session{}, err
	}
	if !session.IsModerator(actorID) {
		return entities.Session{}, domainerrors.ErrNotAuthorized
	}
	if !services.AllowsTopicChanges(session.State) {
		return entities.Session{}, fmt.Errorf("%w: topics can only change during setup, session is %s",
			domainerrors.ErrInvalidSessionState, session.State)
	}
	return session, nil
}
