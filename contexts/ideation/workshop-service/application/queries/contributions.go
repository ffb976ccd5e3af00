package queries

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ideaforge/contexts/ideation/workshop-service/domain/entities"
	domainerrors "ideaforge/contexts/ideation/workshop-service/domain/errors"
	"ideaforge/contexts/ideation/workshop-service/domain/services"
	"ideaforge/contexts/ideation/workshop-service/ports"
)

type ListContributionsQuery struct {
	SessionID     string
	ViewerID      string
	RequireVoting bool
}

type ContributionsUseCase struct {
	Sessions      ports.SessionRepository
	Topics        ports.TopicRepository
	Contributions ports.ContributionRepository
	Logger        *slog.Logger
}

// ListForSession groups every contribution under its topic. Topics keep their
// sort order; contributions within a topic are ordered by submission time.
// Topics without contributions are included with an empty list.
func (uc ContributionsUseCase) ListForSession(ctx context.Context, query ListContributionsQuery) ([]entities.TopicContributions, error) {
	sessionID := strings.TrimSpace(query.SessionID)
	session, err := uc.Sessions.GetSession(ctx, sessionID, ports.LockNone)
	if err != nil {
		return nil, err
	}
	if query.RequireVoting && !services.AllowsVoting(session.State) {
		return nil, fmt.Errorf("%w: session state is %s", domainerrors.ErrInvalidSessionState, session.State)
	}

	topics, err := uc.Topics.ListTopics(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	views, err := uc.Contributions.ListContributionViews(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	viewerID := entities.NormalizeParticipantID(query.ViewerID)
	byTopic := make(map[string][]entities.ContributionView, len(topics))
	for _, view := range views {
		view.Own = viewerID != "" && view.ParticipantID == viewerID
		byTopic[view.TopicID] = append(byTopic[view.TopicID], view)
	}

	grouped := make([]entities.TopicContributions, 0, len(topics))
	for _, topic := range topics {
		items := byTopic[topic.TopicID]
		if items == nil {
			items = []entities.ContributionView{}
		}
		grouped = append(grouped, entities.TopicContributions{
			Topic:         topic,
			Contributions: items,
		})
	}
	return grouped, nil
}
