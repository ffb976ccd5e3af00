package queries

import (
	"context"
	"log/slog"
	"strings"

	"ideaforge/contexts/ideation/workshop-service/domain/entities"
	"ideaforge/contexts/ideation/workshop-service/domain/services"
	"ideaforge/contexts/ideation/workshop-service/ports"
)

type GetSessionUseCase struct {
	Sessions ports.SessionRepository
	Logger   *slog.Logger
}

func (uc GetSessionUseCase) Execute(ctx context.Context, sessionID string) (entities.Session, error) {
	return uc.Sessions.GetSession(ctx, strings.TrimSpace(sessionID), ports.LockNone)
}

type ListTopicsUseCase struct {
	Sessions ports.SessionRepository
	Topics   ports.TopicRepository
	Logger   *slog.Logger
}

// Execute returns the session's topics in ascending sort order.
func (uc ListTopicsUseCase) Execute(ctx context.Context, sessionID string) ([]entities.Topic, error) {
	sessionID = strings.TrimSpace(sessionID)
	if _, err := uc.Sessions.GetSession(ctx, sessionID, ports.LockNone); err != nil {
		return nil, err
	}
	return uc.Topics.ListTopics(ctx, sessionID)
}

// AllTopicsLocked is true only when the session has at least one topic and
// every topic is locked.
func (uc ListTopicsUseCase) AllTopicsLocked(ctx context.Context, sessionID string) (bool, error) {
	topics, err := uc.Execute(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return services.AllTopicsLocked(topics), nil
}
