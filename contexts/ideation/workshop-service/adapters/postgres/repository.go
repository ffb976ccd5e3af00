package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"ideaforge/contexts/ideation/workshop-service/domain/entities"
	domainerrors "ideaforge/contexts/ideation/workshop-service/domain/errors"
	"ideaforge/contexts/ideation/workshop-service/ports"
	"ideaforge/internal/shared/outbox"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	constraintUniqueAuthor = "workshop_contributions_unique_author"
	constraintUniqueVoter  = "workshop_votes_unique_voter"
)

// Repository implements ports.Store on Postgres. Inside Atomic the same type
// is bound to the transaction handle.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ ports.Store = (*Repository)(nil)

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) Atomic(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Repository{db: tx, logger: r.logger})
	})
}

func (r *Repository) CreateSession(ctx context.Context, session entities.Session) error {
	row := sessionModel{
		SessionID:   session.SessionID,
		Name:        session.Name,
		ModeratorID: session.ModeratorID,
		State:       string(session.State),
		CreatedAt:   session.CreatedAt.UTC(),
		UpdatedAt:   session.UpdatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("workshop_repo_create_session_failed", err, "session_id", session.SessionID)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, sessionID string, lock ports.LockMode) (entities.Session, error) {
	query := r.db.WithContext(ctx)
	switch lock {
	case ports.LockShare:
		query = query.Clauses(clause.Locking{Strength: "SHARE"})
	case ports.LockUpdate:
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row sessionModel
	err := query.Where("session_id = ?", strings.TrimSpace(sessionID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Session{}, domainerrors.ErrSessionNotFound
		}
		return entities.Session{}, r.logError("workshop_repo_get_session_failed", err, "session_id", sessionID)
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateSessionState(
	ctx context.Context,
	sessionID string,
	state entities.SessionState,
	updatedAt time.Time,
) error {
	result := r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("session_id = ?", strings.TrimSpace(sessionID)).
		Updates(map[string]any{
			"state":      string(state),
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("workshop_repo_update_session_state_failed", result.Error,
			"session_id", sessionID,
			"state", string(state),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrSessionNotFound
	}
	return nil
}

func (r *Repository) DeleteSession(ctx context.Context, sessionID string) error {
	result := r.db.WithContext(ctx).
		Where("session_id = ?", strings.TrimSpace(sessionID)).
		Delete(&sessionModel{})
	if result.Error != nil {
		return r.logError("workshop_repo_delete_session_failed", result.Error, "session_id", sessionID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrSessionNotFound
	}
	return nil
}

func (r *Repository) CreateTopic(ctx context.Context, topic entities.Topic) error {
	row := topicModelFromEntity(topic)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("workshop_repo_create_topic_failed", err,
			"session_id", topic.SessionID,
			"topic_id", topic.TopicID,
		)
	}
	return nil
}

func (r *Repository) UpdateTopic(ctx context.Context, topic entities.Topic) error {
	row := topicModelFromEntity(topic)
	result := r.db.WithContext(ctx).
		Model(&topicModel{}).
		Where("session_id = ? AND topic_id = ?", row.SessionID, row.TopicID).
		Updates(map[string]any{
			"domain":    row.Domain,
			"name":      row.Name,
			"locked":    row.Locked,
			"locked_at": row.LockedAt,
		})
	if result.Error != nil {
		return r.logError("workshop_repo_update_topic_failed", result.Error,
			"session_id", topic.SessionID,
			"topic_id", topic.TopicID,
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrTopicNotFound
	}
	return nil
}

func (r *Repository) GetTopic(ctx context.Context, sessionID string, topicID string) (entities.Topic, error) {
	var row topicModel
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND topic_id = ?", strings.TrimSpace(sessionID), strings.TrimSpace(topicID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Topic{}, domainerrors.ErrTopicNotFound
		}
		return entities.Topic{}, r.logError("workshop_repo_get_topic_failed", err,
			"session_id", sessionID,
			"topic_id", topicID,
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListTopics(ctx context.Context, sessionID string) ([]entities.Topic, error) {
	var rows []topicModel
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", strings.TrimSpace(sessionID)).
		Order("sort_order ASC").
		Order("topic_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("workshop_repo_list_topics_failed", err, "session_id", sessionID)
	}
	items := make([]entities.Topic, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) NextTopicSortOrder(ctx context.Context, sessionID string) (int, error) {
	var current int
	if err := r.db.WithContext(ctx).
		Model(&topicModel{}).
		Select("COALESCE(MAX(sort_order), 0)").
		Where("session_id = ?", strings.TrimSpace(sessionID)).
		Scan(&current).Error; err != nil {
		return 0, r.logError("workshop_repo_next_topic_sort_order_failed", err, "session_id", sessionID)
	}
	return current + 1, nil
}

func (r *Repository) InsertParticipant(ctx context.Context, participant entities.Participant) (bool, error) {
	row := participantModelFromEntity(participant)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "participant_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("workshop_repo_insert_participant_failed", create.Error,
			"session_id", participant.SessionID,
			"participant_id", participant.ParticipantID,
		)
	}
	return create.RowsAffected > 0, nil
}

func (r *Repository) GetParticipant(ctx context.Context, sessionID string, participantID string) (entities.Participant, error) {
	var row participantModel
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND participant_id = ?", strings.TrimSpace(sessionID), entities.NormalizeParticipantID(participantID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Participant{}, domainerrors.ErrParticipantNotFound
		}
		return entities.Participant{}, r.logError("workshop_repo_get_participant_failed", err,
			"session_id", sessionID,
			"participant_id", participantID,
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListParticipants(ctx context.Context, sessionID string) ([]entities.Participant, error) {
	var rows []participantModel
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", strings.TrimSpace(sessionID)).
		Order("joined_at ASC").
		Order("participant_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("workshop_repo_list_participants_failed", err, "session_id", sessionID)
	}
	items := make([]entities.Participant, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// MarkSubmitted keeps the first submission time when the participant
// resubmits.
func (r *Repository) MarkSubmitted(ctx context.Context, sessionID string, participantID string, submittedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&participantModel{}).
		Where("session_id = ? AND participant_id = ?", strings.TrimSpace(sessionID), entities.NormalizeParticipantID(participantID)).
		Where("status <> ?", string(entities.ParticipantStatusSubmitted)).
		Updates(map[string]any{
			"status":       string(entities.ParticipantStatusSubmitted),
			"submitted_at": submittedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("workshop_repo_mark_submitted_failed", result.Error,
			"session_id", sessionID,
			"participant_id", participantID,
		)
	}
	return nil
}

func (r *Repository) UpsertContribution(ctx context.Context, contribution entities.Contribution) (entities.Contribution, error) {
	row := contributionModelFromEntity(contribution)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		OnConstraint: constraintUniqueAuthor,
		DoUpdates: clause.Assignments(map[string]any{
			"current_status": row.CurrentStatus,
			"minor_impact":   row.MinorImpact,
			"disruption":     row.Disruption,
			"reimagination":  row.Reimagination,
			"submitted_at":   row.SubmittedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return entities.Contribution{}, r.logError("workshop_repo_upsert_contribution_failed", create.Error,
			"session_id", contribution.SessionID,
			"topic_id", contribution.TopicID,
			"participant_id", contribution.ParticipantID,
			"constraint", constraintName(create.Error),
		)
	}

	var stored contributionModel
	if err := r.db.WithContext(ctx).
		Where("session_id = ? AND topic_id = ? AND participant_id = ?", row.SessionID, row.TopicID, row.ParticipantID).
		First(&stored).Error; err != nil {
		return entities.Contribution{}, r.logError("workshop_repo_upsert_contribution_reload_failed", err,
			"session_id", contribution.SessionID,
			"topic_id", contribution.TopicID,
		)
	}
	return stored.toEntity(), nil
}

func (r *Repository) GetContribution(ctx context.Context, sessionID string, contributionID string) (entities.Contribution, error) {
	var row contributionModel
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND contribution_id = ?", strings.TrimSpace(sessionID), strings.TrimSpace(contributionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Contribution{}, domainerrors.ErrContributionNotFound
		}
		return entities.Contribution{}, r.logError("workshop_repo_get_contribution_failed", err,
			"session_id", sessionID,
			"contribution_id", contributionID,
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListContributionViews(ctx context.Context, sessionID string) ([]entities.ContributionView, error) {
	var rows []contributionViewRow
	err := r.db.WithContext(ctx).
		Table("workshop_contributions AS c").
		Select(`c.contribution_id, c.topic_id, c.participant_id,
			COALESCE(p.display_name, '') AS contributor_name,
			c.current_status, c.minor_impact, c.disruption, c.reimagination, c.submitted_at,
			(SELECT COUNT(*) FROM workshop_votes AS v WHERE v.contribution_id = c.contribution_id) AS votes`).
		Joins("LEFT JOIN workshop_participants AS p ON p.session_id = c.session_id AND p.participant_id = c.participant_id").
		Where("c.session_id = ?", strings.TrimSpace(sessionID)).
		Order("c.submitted_at ASC").
		Order("c.contribution_id ASC").
		Scan(&rows).
		Error
	if err != nil {
		return nil, r.logError("workshop_repo_list_contribution_views_failed", err, "session_id", sessionID)
	}
	items := make([]entities.ContributionView, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) HasVote(ctx context.Context, contributionID string, voterID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Where("contribution_id = ? AND voter_id = ?", strings.TrimSpace(contributionID), entities.NormalizeParticipantID(voterID)).
		Count(&count).Error; err != nil {
		return false, r.logError("workshop_repo_has_vote_failed", err, "contribution_id", contributionID)
	}
	return count > 0, nil
}

func (r *Repository) InsertVote(ctx context.Context, vote entities.Vote) error {
	row := voteModel{
		VoteID:         vote.VoteID,
		SessionID:      vote.SessionID,
		ContributionID: vote.ContributionID,
		VoterID:        vote.VoterID,
		CreatedAt:      vote.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) && constraintName(err) == constraintUniqueVoter {
			return domainerrors.ErrDuplicateVote
		}
		return r.logError("workshop_repo_insert_vote_failed", err,
			"contribution_id", vote.ContributionID,
			"constraint", constraintName(err),
		)
	}
	return nil
}

func (r *Repository) CountVotes(ctx context.Context, contributionID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Where("contribution_id = ?", strings.TrimSpace(contributionID)).
		Count(&count).Error; err != nil {
		return 0, r.logError("workshop_repo_count_votes_failed", err, "contribution_id", contributionID)
	}
	return int(count), nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("workshop_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("workshop_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("created_at ASC").
		Order("outbox_id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("workshop_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outbox.StatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("workshop_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "ideation/workshop-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("workshop repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
