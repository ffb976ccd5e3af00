package queries

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "ideaforge/contexts/ideation/workshop-service/application"
	"ideaforge/contexts/ideation/workshop-service/domain/entities"
	"ideaforge/contexts/ideation/workshop-service/domain/services"
	"ideaforge/contexts/ideation/workshop-service/ports"
)

type ReportUseCase struct {
	Sessions      ports.SessionRepository
	Topics        ports.TopicRepository
	Contributions ports.ContributionRepository
	Clock         ports.Clock
	Logger        *slog.Logger
}

// Compile builds the ranked session report. It is a pure read and may be
// called in any state.
func (uc ReportUseCase) Compile(ctx context.Context, sessionID string) (entities.Report, error) {
	logger := application.ResolveLogger(uc.Logger)
	sessionID = strings.TrimSpace(sessionID)
	session, err := uc.Sessions.GetSession(ctx, sessionID, ports.LockNone)
	if err != nil {
		return entities.Report{}, err
	}
	topics, err := uc.Topics.ListTopics(ctx, sessionID)
	if err != nil {
		return entities.Report{}, err
	}
	views, err := uc.Contributions.ListContributionViews(ctx, sessionID)
	if err != nil {
		return entities.Report{}, err
	}

	index := make(map[string]int, len(topics))
	reportTopics := make([]entities.ReportTopic, 0, len(topics))
	for _, topic := range topics {
		index[topic.TopicID] = len(reportTopics)
		reportTopics = append(reportTopics, entities.ReportTopic{
			Domain:        topic.Domain,
			Name:          topic.Name,
			SortOrder:     topic.SortOrder,
			Contributions: []entities.ReportContribution{},
		})
	}
	for _, view := range views {
		position, ok := index[view.TopicID]
		if !ok {
			continue
		}
		reportTopics[position].Contributions = append(reportTopics[position].Contributions, entities.ReportContribution{
			ContributionID:  view.ContributionID,
			ContributorName: view.ContributorName,
			CurrentStatus:   view.CurrentStatus,
			MinorImpact:     view.MinorImpact,
			Disruption:      view.Disruption,
			Reimagination:   view.Reimagination,
			Votes:           view.Votes,
			SubmittedAt:     view.SubmittedAt,
		})
	}

	services.RankReport(reportTopics)
	report := entities.Report{
		SessionID:   session.SessionID,
		SessionName: session.Name,
		State:       session.State,
		GeneratedAt: uc.now(),
		Topics:      reportTopics,
	}
	logger.Info("session report compiled",
		"event", "workshop_report_compiled",
		"module", "ideation/workshop-service",
		"layer", "application",
		"session_id", sessionID,
		"topic_count", len(report.Topics),
	)
	return report, nil
}

func (uc ReportUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
