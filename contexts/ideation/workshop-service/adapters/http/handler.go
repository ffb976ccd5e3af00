package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"ideaforge/contexts/ideation/workshop-service/adapters/export"
	application "ideaforge/contexts/ideation/workshop-service/application"
	"ideaforge/contexts/ideation/workshop-service/application/commands"
	"ideaforge/contexts/ideation/workshop-service/application/queries"
	"ideaforge/contexts/ideation/workshop-service/domain/entities"
	"ideaforge/contexts/ideation/workshop-service/domain/services"
	httptransport "ideaforge/contexts/ideation/workshop-service/transport/http"
)

type Handler struct {
	Sessions      commands.SessionUseCase
	Topics        commands.TopicUseCase
	Roster        commands.RosterUseCase
	Submissions   commands.ContributionUseCase
	Votes         commands.VoteUseCase
	GetSession    queries.GetSessionUseCase
	ListTopics    queries.ListTopicsUseCase
	RosterStatus  queries.RosterStatusUseCase
	Contributions queries.ContributionsUseCase
	VoteCounts    queries.VoteCountUseCase
	Reports       queries.ReportUseCase
	Logger        *slog.Logger
}

// CreateSessionHandler godoc
// @Summary Create a workshop session
// @Description Creates a session in setup state. The caller becomes its moderator and first participant.
// @Tags workshop
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller identity"
// @Param request body httptransport.CreateSessionRequest true "Session"
// @Success 201 {object} httptransport.SessionResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Router /v1/sessions [post]
func (h Handler) CreateSessionHandler(
	ctx context.Context,
	userID string,
	req httptransport.CreateSessionRequest,
) (httptransport.SessionResponse, error) {
	session, err := h.Sessions.CreateSession(ctx, commands.CreateSessionCommand{
		Name:        req.Name,
		ModeratorID: userID,
		DisplayName: req.DisplayName,
		Contact:     req.Contact,
	})
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return httptransport.SessionResponse{Session: mapSession(session)}, nil
}

// GetSessionHandler godoc
// @Summary Get a workshop session
// @Tags workshop
// @Produce json
// @Param session_id path string true "Session id"
// @Success 200 {object} httptransport.SessionResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/sessions/{session_id} [get]
func (h Handler) GetSessionHandler(ctx context.Context, sessionID string) (httptransport.SessionResponse, error) {
	session, err := h.GetSession.Execute(ctx, sessionID)
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return httptransport.SessionResponse{Session: mapSession(session)}, nil
}

// DeleteSessionHandler godoc
// @Summary Delete a workshop session
// @Description Moderator only. Removes topics, participants, contributions and votes.
// @Tags workshop
// @Param X-User-Id header string true "Caller identity"
// @Param session_id path string true "Session id"
// @Success 204
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/sessions/{session_id} [delete]
func (h Handler) DeleteSessionHandler(ctx context.Context, userID string, sessionID string) error {
	return h.Sessions.DeleteSession(ctx, commands.DeleteSessionCommand{
		SessionID: sessionID,
		ActorID:   userID,
	})
}

// SetStateHandler godoc
// @Summary Move a session to the next lifecycle state
// @Description Moderator only. States advance one step at a time: setup, published, voting, voting_locked, final. "contributing" is accepted as an alias of published.
// @Tags workshop
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller identity"
// @Param session_id path string true "Session id"
// @Param request body httptransport.SetStateRequest true "Requested state"
// @Success 200 {object} httptransport.SessionResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/sessions/{session_id}/state [post]
func (h Handler) SetStateHandler(
	ctx context.Context,
	userID string,
	sessionID string,
	req httptransport.SetStateRequest,
) (httptransport.SessionResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("session state request received",
		"event", "http_session_state_received",
		"module", "ideation/workshop-service",
		"layer", "transport",
		"session_id", sessionID,
		"requested_state", req.State,
	)
	session, err := h.Sessions.SetState(ctx, commands.SetStateCommand{
		SessionID: sessionID,
		ActorID:   userID,
		State:     req.State,
	})
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return httptransport.SessionResponse{Session: mapSession(session)}, nil
}

// AddTopicHandler godoc
// @Summary Add a topic
// @Tags workshop
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller identity"
// @Param session_id path string true "Session id"
// @Param request body httptransport.AddTopicRequest true "Topic"
// @Success 201 {object} httptransport.TopicResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /v1/sessions/{session_id}/topics [post]
func (h Handler) AddTopicHandler(
	ctx context.Context,
	userID string,
	sessionID string,
	req httptransport.AddTopicRequest,
) (httptransport.TopicResponse, error) {
	topic, err := h.Topics.AddTopic(ctx, commands.AddTopicCommand{
		SessionID: sessionID,
		ActorID:   userID,
		Domain:    req.Domain,
		Name:      req.Name,
	})
	if err != nil {
		return httptransport.TopicResponse{}, err
	}
	return httptransport.TopicResponse{Topic: mapTopic(topic)}, nil
}

// ListTopicsHandler godoc
// @Summary List topics in sort order
// @Tags workshop
// @Produce json
// @Param session_id path string true "Session id"
// @Success 200 {object} httptransport.ListTopicsResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/sessions/{session_id}/topics [get]
func (h Handler) ListTopicsHandler(ctx context.Context, sessionID string) (httptransport.ListTopicsResponse, error) {
	topics, err := h.ListTopics.Execute(ctx, sessionID)
	if err != nil {
		return httptransport.ListTopicsResponse{}, err
	}
	items := make([]httptransport.TopicDTO, 0, len(topics))
	for _, topic := range topics {
		items = append(items, mapTopic(topic))
	}
	return httptransport.ListTopicsResponse{
		Items:           items,
		AllTopicsLocked: services.AllTopicsLocked(topics),
	}, nil
}

// UpdateTopicHandler godoc
// @Summary Edit an unlocked topic
// @Tags workshop
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller identity"
// @Param session_id path string true "Session id"
// @Param topic_id path string true "Topic id"
// @Param request body httptransport.UpdateTopicRequest true "Topic"
// @Success 200 {object} httptransport.TopicResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/sessions/{session_id}/topics/{topic_id} [patch]
func (h Handler) UpdateTopicHandler(
	ctx context.Context,
	userID string,
	sessionID string,
	topicID string,
	req httptransport.UpdateTopicRequest,
) (httptransport.TopicResponse, error) {
	topic, err := h.Topics.UpdateTopic(ctx, commands.UpdateTopicCommand{
		SessionID: sessionID,
		ActorID:   userID,
		TopicID:   topicID,
		Domain:    req.Domain,
		Name:      req.Name,
	})
	if err != nil {
		return httptransport.TopicResponse{}, err
	}
	return httptransport.TopicResponse{Topic: mapTopic(topic)}, nil
}

// LockTopicHandler godoc
// @Summary Lock a topic
// @Tags workshop
// @Produce json
// @Param X-User-Id header string true "Caller identity"
// @Param session_id path string true "Session id"
// @Param topic_id path string true "Topic id"
// @Success 200 {object} httptransport.TopicResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/sessions/{session_id}/topics/{topic_id}/lock [post]
func (h Handler) LockTopicHandler(
	ctx context.Context,
	userID string,
	sessionID string,
	topicID string,
) (httptransport.TopicResponse, error) {
	topic, err := h.Topics.LockTopic(ctx, commands.LockTopicCommand{
		SessionID: sessionID,
		ActorID:   userID,
		TopicID:   topicID,
	})
	if err != nil {
		return httptransport.TopicResponse{}, err
	}
	return httptransport.TopicResponse{Topic: mapTopic(topic)}, nil
}

// JoinHandler godoc
// @Summary Join a session
// @Description Idempotent. A repeated join returns the stored participant with created=false.
// @Tags workshop
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller identity"
// @Param session_id path string true "Session id"
// @Param request body httptransport.JoinRequest false "Profile"
// @Success 200 {object} httptransport.JoinResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/sessions/{session_id}/participants [post]
func (h Handler) JoinHandler(
	ctx context.Context,
	userID string,
	sessionID string,
	req httptransport.JoinRequest,
) (httptransport.JoinResponse, error) {
	result, err := h.Roster.Join(ctx, commands.JoinCommand{
		SessionID:     sessionID,
		ParticipantID: userID,
		DisplayName:   req.DisplayName,
		Contact:       req.Contact,
	})
	if err != nil {
		return httptransport.JoinResponse{}, err
	}
	return httptransport.JoinResponse{
		Participant: mapParticipant(result.Participant),
		Created:     result.Created,
	}, nil
}

// StatusHandler godoc
// @Summary Roster submission status
// @Tags workshop
// @Produce json
// @Param session_id path string true "Session id"
// @Success 200 {object} httptransport.RosterStatusResponse
// @Router /v1/sessions/{session_id}/status [get]
func (h Handler) StatusHandler(ctx context.Context, sessionID string) (httptransport.RosterStatusResponse, error) {
	status, err := h.RosterStatus.Execute(ctx, sessionID)
	if err != nil {
		return httptransport.RosterStatusResponse{}, err
	}
	participants := make([]httptransport.ParticipantDTO, 0, len(status.Participants))
	for _, participant := range status.Participants {
		participants = append(participants, mapParticipant(participant))
	}
	return httptransport.RosterStatusResponse{
		Total:        status.Total,
		Submitted:    status.Submitted,
		Pending:      status.Pending,
		Participants: participants,
	}, nil
}

// SubmitContributionsHandler godoc
// @Summary Submit all contributions
// @Description Upserts one contribution per topic for the caller in a single transaction.
// @Tags workshop
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller identity"
// @Param session_id path string true "Session id"
// @Param request body httptransport.SubmitContributionsRequest true "Items"
// @Success 200 {object} httptransport.SubmitContributionsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /v1/sessions/{session_id}/contributions [post]
func (h Handler) SubmitContributionsHandler(
	ctx context.Context,
	userID string,
	sessionID string,
	req httptransport.SubmitContributionsRequest,
) (httptransport.SubmitContributionsResponse, error) {
	items := make([]entities.ContributionItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, entities.ContributionItem{
			TopicID:       item.TopicID,
			CurrentStatus: item.CurrentStatus,
			MinorImpact:   item.MinorImpact,
			Disruption:    item.Disruption,
			Reimagination: item.Reimagination,
		})
	}
	saved, err := h.Submissions.SubmitAll(ctx, commands.SubmitAllCommand{
		SessionID:     sessionID,
		ParticipantID: userID,
		Items:         items,
	})
	if err != nil {
		return httptransport.SubmitContributionsResponse{}, err
	}
	return httptransport.SubmitContributionsResponse{Saved: saved}, nil
}

// ListContributionsHandler godoc
// @Summary List contributions grouped by topic
// @Tags workshop
// @Produce json
// @Param X-User-Id header string false "Caller identity, marks own contributions"
// @Param session_id path string true "Session id"
// @Param voting query bool false "Require the session to be in voting state"
// @Success 200 {object} httptransport.ListContributionsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /v1/sessions/{session_id}/contributions [get]
func (h Handler) ListContributionsHandler(
	ctx context.Context,
	userID string,
	sessionID string,
	requireVoting bool,
) (httptransport.ListContributionsResponse, error) {
	groups, err := h.Contributions.ListForSession(ctx, queries.ListContributionsQuery{
		SessionID:     sessionID,
		ViewerID:      userID,
		RequireVoting: requireVoting,
	})
	if err != nil {
		return httptransport.ListContributionsResponse{}, err
	}
	items := make([]httptransport.TopicContributionsDTO, 0, len(groups))
	for _, group := range groups {
		contributions := make([]httptransport.ContributionDTO, 0, len(group.Contributions))
		for _, view := range group.Contributions {
			contributions = append(contributions, httptransport.ContributionDTO{
				ContributionID:  view.ContributionID,
				ContributorName: view.ContributorName,
				CurrentStatus:   view.CurrentStatus,
				MinorImpact:     view.MinorImpact,
				Disruption:      view.Disruption,
				Reimagination:   view.Reimagination,
				SubmittedAt:     formatTime(view.SubmittedAt),
				Votes:           view.Votes,
				Own:             view.Own,
			})
		}
		items = append(items, httptransport.TopicContributionsDTO{
			Topic:         mapTopic(group.Topic),
			Contributions: contributions,
		})
	}
	return httptransport.ListContributionsResponse{Items: items}, nil
}

// CastVoteHandler godoc
// @Summary Vote for a contribution
// @Description One vote per voter and contribution. Self votes are rejected.
// @Tags workshop
// @Produce json
// @Param X-User-Id header string true "Caller identity"
// @Param session_id path string true "Session id"
// @Param contribution_id path string true "Contribution id"
// @Success 200 {object} httptransport.VoteResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/sessions/{session_id}/contributions/{contribution_id}/votes [post]
func (h Handler) CastVoteHandler(
	ctx context.Context,
	userID string,
	sessionID string,
	contributionID string,
) (httptransport.VoteResponse, error) {
	result, err := h.Votes.CastVote(ctx, commands.CastVoteCommand{
		SessionID:      sessionID,
		ContributionID: contributionID,
		VoterID:        userID,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{ContributionID: result.ContributionID, Votes: result.Votes}, nil
}

// CountVotesHandler godoc
// @Summary Live vote count of a contribution
// @Tags workshop
// @Produce json
// @Param session_id path string true "Session id"
// @Param contribution_id path string true "Contribution id"
// @Success 200 {object} httptransport.VoteResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/sessions/{session_id}/contributions/{contribution_id}/votes [get]
func (h Handler) CountVotesHandler(
	ctx context.Context,
	sessionID string,
	contributionID string,
) (httptransport.VoteResponse, error) {
	count, err := h.VoteCounts.CountFor(ctx, sessionID, contributionID)
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{ContributionID: contributionID, Votes: count}, nil
}

// ReportHandler godoc
// @Summary Download the ranked session report
// @Tags workshop
// @Produce json,plain,text/markdown,text/csv
// @Param session_id path string true "Session id"
// @Param format query string false "json, text, markdown or csv"
// @Success 200 {string} string
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/sessions/{session_id}/report [get]
func (h Handler) ReportHandler(
	ctx context.Context,
	sessionID string,
	format export.Format,
) ([]byte, error) {
	report, err := h.Reports.Compile(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return export.Render(report, format)
}

func mapSession(session entities.Session) httptransport.SessionDTO {
	return httptransport.SessionDTO{
		SessionID:   session.SessionID,
		Name:        session.Name,
		ModeratorID: session.ModeratorID,
		State:       string(session.State),
		CreatedAt:   formatTime(session.CreatedAt),
		UpdatedAt:   formatTime(session.UpdatedAt),
	}
}

func mapTopic(topic entities.Topic) httptransport.TopicDTO {
	dto := httptransport.TopicDTO{
		TopicID:   topic.TopicID,
		Domain:    topic.Domain,
		Name:      topic.Name,
		SortOrder: topic.SortOrder,
		Locked:    topic.Locked,
	}
	if topic.LockedAt != nil {
		dto.LockedAt = formatTime(*topic.LockedAt)
	}
	return dto
}

func mapParticipant(participant entities.Participant) httptransport.ParticipantDTO {
	dto := httptransport.ParticipantDTO{
		ParticipantID: participant.ParticipantID,
		DisplayName:   participant.DisplayName,
		Status:        string(participant.Status),
		JoinedAt:      formatTime(participant.JoinedAt),
	}
	if participant.SubmittedAt != nil {
		dto.SubmittedAt = formatTime(*participant.SubmittedAt)
	}
	return dto
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339)
}
