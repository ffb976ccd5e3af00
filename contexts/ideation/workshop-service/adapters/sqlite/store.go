package sqliteadapter

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ideaforge/contexts/ideation/workshop-service/domain/entities"
	domainerrors "ideaforge/contexts/ideation/workshop-service/domain/errors"
	"ideaforge/contexts/ideation/workshop-service/ports"
	"ideaforge/internal/shared/outbox"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// MemoryPath opens a private in-process database.
const MemoryPath = ":memory:"

const timeLayout = "2006-01-02T15:04:05.000000000Z"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements ports.Store on an embedded SQLite database. The pool is
// limited to one connection, so transactions are serialised and an in-memory
// database lives as long as the Store.
type Store struct {
	db     *sql.DB
	q      querier
	logger *slog.Logger
}

var _ ports.Store = (*Store)(nil)

// Open opens or creates the database at path and applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	path = strings.TrimSpace(path)
	if path == "" {
		path = MemoryPath
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	// The api and worker processes may share one database file.
	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply sqlite %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &Store{db: db, q: db, logger: logger}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.logError("workshop_sqlite_begin_failed", err)
	}
	defer func() {
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()
	if err = fn(ctx, &Store{db: s.db, q: sqlTx, logger: s.logger}); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return s.logError("workshop_sqlite_commit_failed", err)
	}
	return nil
}

func (s *Store) CreateSession(ctx context.Context, session entities.Session) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO workshop_sessions (session_id, name, moderator_id, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		session.SessionID, session.Name, session.ModeratorID, string(session.State),
		formatTime(session.CreatedAt), formatTime(session.UpdatedAt),
	)
	if err != nil {
		return s.logError("workshop_sqlite_create_session_failed", err, "session_id", session.SessionID)
	}
	return nil
}

// GetSession ignores lock: the single connection already serialises
// transactions.
func (s *Store) GetSession(ctx context.Context, sessionID string, _ ports.LockMode) (entities.Session, error) {
	var (
		session   entities.Session
		state     string
		createdAt string
		updatedAt string
	)
	err := s.q.QueryRowContext(ctx,
		`SELECT session_id, name, moderator_id, state, created_at, updated_at
		FROM workshop_sessions WHERE session_id = ?`,
		strings.TrimSpace(sessionID),
	).Scan(&session.SessionID, &session.Name, &session.ModeratorID, &state, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entities.Session{}, domainerrors.ErrSessionNotFound
		}
		return entities.Session{}, s.logError("workshop_sqlite_get_session_failed", err, "session_id", sessionID)
	}
	session.State = entities.SessionState(state)
	session.CreatedAt = parseTime(createdAt)
	session.UpdatedAt = parseTime(updatedAt)
	return session, nil
}

func (s *Store) UpdateSessionState(ctx context.Context, sessionID string, state entities.SessionState, updatedAt time.Time) error {
	result, err := s.q.ExecContext(ctx,
		`UPDATE workshop_sessions SET state = ?, updated_at = ? WHERE session_id = ?`,
		string(state), formatTime(updatedAt), strings.TrimSpace(sessionID),
	)
	if err != nil {
		return s.logError("workshop_sqlite_update_session_state_failed", err, "session_id", sessionID)
	}
	return requireRow(result, domainerrors.ErrSessionNotFound)
}

func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	result, err := s.q.ExecContext(ctx,
		`DELETE FROM workshop_sessions WHERE session_id = ?`,
		strings.TrimSpace(sessionID),
	)
	if err != nil {
		return s.logError("workshop_sqlite_delete_session_failed", err, "session_id", sessionID)
	}
	return requireRow(result, domainerrors.ErrSessionNotFound)
}

func (s *Store) CreateTopic(ctx context.Context, topic entities.Topic) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO workshop_topics (topic_id, session_id, domain, name, sort_order, locked, created_at, locked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		topic.TopicID, topic.SessionID, topic.Domain, topic.Name, topic.SortOrder,
		topic.Locked, formatTime(topic.CreatedAt), formatTimePtr(topic.LockedAt),
	)
	if err != nil {
		return s.logError("workshop_sqlite_create_topic_failed", err,
			"session_id", topic.SessionID,
			"topic_id", topic.TopicID,
		)
	}
	return nil
}

func (s *Store) UpdateTopic(ctx context.Context, topic entities.Topic) error {
	result, err := s.q.ExecContext(ctx,
		`UPDATE workshop_topics SET domain = ?, name = ?, locked = ?, locked_at = ?
		WHERE session_id = ? AND topic_id = ?`,
		topic.Domain, topic.Name, topic.Locked, formatTimePtr(topic.LockedAt),
		topic.SessionID, topic.TopicID,
	)
	if err != nil {
		return s.logError("workshop_sqlite_update_topic_failed", err,
			"session_id", topic.SessionID,
			"topic_id", topic.TopicID,
		)
	}
	return requireRow(result, domainerrors.ErrTopicNotFound)
}

const topicColumns = `topic_id, session_id, domain, name, sort_order, locked, created_at, locked_at`

func (s *Store) GetTopic(ctx context.Context, sessionID string, topicID string) (entities.Topic, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+topicColumns+` FROM workshop_topics WHERE session_id = ? AND topic_id = ?`,
		strings.TrimSpace(sessionID), strings.TrimSpace(topicID),
	)
	topic, err := scanTopic(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entities.Topic{}, domainerrors.ErrTopicNotFound
		}
		return entities.Topic{}, s.logError("workshop_sqlite_get_topic_failed", err,
			"session_id", sessionID,
			"topic_id", topicID,
		)
	}
	return topic, nil
}

func (s *Store) ListTopics(ctx context.Context, sessionID string) ([]entities.Topic, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+topicColumns+` FROM workshop_topics WHERE session_id = ? ORDER BY sort_order ASC, topic_id ASC`,
		strings.TrimSpace(sessionID),
	)
	if err != nil {
		return nil, s.logError("workshop_sqlite_list_topics_failed", err, "session_id", sessionID)
	}
	defer rows.Close()

	items := make([]entities.Topic, 0)
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, s.logError("workshop_sqlite_scan_topic_failed", err, "session_id", sessionID)
		}
		items = append(items, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, s.logError("workshop_sqlite_list_topics_failed", err, "session_id", sessionID)
	}
	return items, nil
}

func (s *Store) NextTopicSortOrder(ctx context.Context, sessionID string) (int, error) {
	var current int
	if err := s.q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_order), 0) FROM workshop_topics WHERE session_id = ?`,
		strings.TrimSpace(sessionID),
	).Scan(&current); err != nil {
		return 0, s.logError("workshop_sqlite_next_topic_sort_order_failed", err, "session_id", sessionID)
	}
	return current + 1, nil
}

func (s *Store) InsertParticipant(ctx context.Context, participant entities.Participant) (bool, error) {
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO workshop_participants (session_id, participant_id, display_name, contact, status, joined_at, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, participant_id) DO NOTHING`,
		participant.SessionID, participant.ParticipantID, participant.DisplayName, participant.Contact,
		string(participant.Status), formatTime(participant.JoinedAt), formatTimePtr(participant.SubmittedAt),
	)
	if err != nil {
		return false, s.logError("workshop_sqlite_insert_participant_failed", err,
			"session_id", participant.SessionID,
			"participant_id", participant.ParticipantID,
		)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

const participantColumns = `session_id, participant_id, display_name, contact, status, joined_at, submitted_at`

func (s *Store) GetParticipant(ctx context.Context, sessionID string, participantID string) (entities.Participant, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+participantColumns+` FROM workshop_participants WHERE session_id = ? AND participant_id = ?`,
		strings.TrimSpace(sessionID), entities.NormalizeParticipantID(participantID),
	)
	participant, err := scanParticipant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entities.Participant{}, domainerrors.ErrParticipantNotFound
		}
		return entities.Participant{}, s.logError("workshop_sqlite_get_participant_failed", err,
			"session_id", sessionID,
			"participant_id", participantID,
		)
	}
	return participant, nil
}

func (s *Store) ListParticipants(ctx context.Context, sessionID string) ([]entities.Participant, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+participantColumns+` FROM workshop_participants WHERE session_id = ?
		ORDER BY joined_at ASC, participant_id ASC`,
		strings.TrimSpace(sessionID),
	)
	if err != nil {
		return nil, s.logError("workshop_sqlite_list_participants_failed", err, "session_id", sessionID)
	}
	defer rows.Close()

	items := make([]entities.Participant, 0)
	for rows.Next() {
		participant, err := scanParticipant(rows)
		if err != nil {
			return nil, s.logError("workshop_sqlite_scan_participant_failed", err, "session_id", sessionID)
		}
		items = append(items, participant)
	}
	if err := rows.Err(); err != nil {
		return nil, s.logError("workshop_sqlite_list_participants_failed", err, "session_id", sessionID)
	}
	return items, nil
}

// MarkSubmitted keeps the first submission time when the participant
// resubmits.
func (s *Store) MarkSubmitted(ctx context.Context, sessionID string, participantID string, submittedAt time.Time) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE workshop_participants SET status = ?, submitted_at = ?
		WHERE session_id = ? AND participant_id = ? AND status <> ?`,
		string(entities.ParticipantStatusSubmitted), formatTime(submittedAt),
		strings.TrimSpace(sessionID), entities.NormalizeParticipantID(participantID),
		string(entities.ParticipantStatusSubmitted),
	)
	if err != nil {
		return s.logError("workshop_sqlite_mark_submitted_failed", err,
			"session_id", sessionID,
			"participant_id", participantID,
		)
	}
	return nil
}

const contributionColumns = `contribution_id, session_id, topic_id, participant_id,
	current_status, minor_impact, disruption, reimagination, submitted_at`

func (s *Store) UpsertContribution(ctx context.Context, contribution entities.Contribution) (entities.Contribution, error) {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO workshop_contributions (`+contributionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, topic_id, participant_id) DO UPDATE SET
			current_status = excluded.current_status,
			minor_impact = excluded.minor_impact,
			disruption = excluded.disruption,
			reimagination = excluded.reimagination,
			submitted_at = excluded.submitted_at`,
		contribution.ContributionID, contribution.SessionID, contribution.TopicID, contribution.ParticipantID,
		contribution.CurrentStatus, contribution.MinorImpact, contribution.Disruption, contribution.Reimagination,
		formatTime(contribution.SubmittedAt),
	)
	if err != nil {
		return entities.Contribution{}, s.logError("workshop_sqlite_upsert_contribution_failed", err,
			"session_id", contribution.SessionID,
			"topic_id", contribution.TopicID,
			"participant_id", contribution.ParticipantID,
		)
	}

	row := s.q.QueryRowContext(ctx,
		`SELECT `+contributionColumns+` FROM workshop_contributions
		WHERE session_id = ? AND topic_id = ? AND participant_id = ?`,
		contribution.SessionID, contribution.TopicID, contribution.ParticipantID,
	)
	stored, err := scanContribution(row)
	if err != nil {
		return entities.Contribution{}, s.logError("workshop_sqlite_upsert_contribution_reload_failed", err,
			"session_id", contribution.SessionID,
			"topic_id", contribution.TopicID,
		)
	}
	return stored, nil
}

func (s *Store) GetContribution(ctx context.Context, sessionID string, contributionID string) (entities.Contribution, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+contributionColumns+` FROM workshop_contributions WHERE session_id = ? AND contribution_id = ?`,
		strings.TrimSpace(sessionID), strings.TrimSpace(contributionID),
	)
	contribution, err := scanContribution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entities.Contribution{}, domainerrors.ErrContributionNotFound
		}
		return entities.Contribution{}, s.logError("workshop_sqlite_get_contribution_failed", err,
			"session_id", sessionID,
			"contribution_id", contributionID,
		)
	}
	return contribution, nil
}

func (s *Store) ListContributionViews(ctx context.Context, sessionID string) ([]entities.ContributionView, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT c.contribution_id, c.topic_id, c.participant_id,
			COALESCE(p.display_name, ''),
			c.current_status, c.minor_impact, c.disruption, c.reimagination, c.submitted_at,
			(SELECT COUNT(*) FROM workshop_votes AS v WHERE v.contribution_id = c.contribution_id)
		FROM workshop_contributions AS c
		LEFT JOIN workshop_participants AS p
			ON p.session_id = c.session_id AND p.participant_id = c.participant_id
		WHERE c.session_id = ?
		ORDER BY c.submitted_at ASC, c.contribution_id ASC`,
		strings.TrimSpace(sessionID),
	)
	if err != nil {
		return nil, s.logError("workshop_sqlite_list_contribution_views_failed", err, "session_id", sessionID)
	}
	defer rows.Close()

	items := make([]entities.ContributionView, 0)
	for rows.Next() {
		var (
			view        entities.ContributionView
			submittedAt string
		)
		if err := rows.Scan(
			&view.ContributionID, &view.TopicID, &view.ParticipantID, &view.ContributorName,
			&view.CurrentStatus, &view.MinorImpact, &view.Disruption, &view.Reimagination,
			&submittedAt, &view.Votes,
		); err != nil {
			return nil, s.logError("workshop_sqlite_scan_contribution_view_failed", err, "session_id", sessionID)
		}
		view.SubmittedAt = parseTime(submittedAt)
		items = append(items, view)
	}
	if err := rows.Err(); err != nil {
		return nil, s.logError("workshop_sqlite_list_contribution_views_failed", err, "session_id", sessionID)
	}
	return items, nil
}

func (s *Store) HasVote(ctx context.Context, contributionID string, voterID string) (bool, error) {
	var count int
	if err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM workshop_votes WHERE contribution_id = ? AND voter_id = ?`,
		strings.TrimSpace(contributionID), entities.NormalizeParticipantID(voterID),
	).Scan(&count); err != nil {
		return false, s.logError("workshop_sqlite_has_vote_failed", err, "contribution_id", contributionID)
	}
	return count > 0, nil
}

func (s *Store) InsertVote(ctx context.Context, vote entities.Vote) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO workshop_votes (vote_id, session_id, contribution_id, voter_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		vote.VoteID, vote.SessionID, vote.ContributionID, vote.VoterID, formatTime(vote.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) && strings.Contains(err.Error(), "workshop_votes.voter_id") {
			return domainerrors.ErrDuplicateVote
		}
		return s.logError("workshop_sqlite_insert_vote_failed", err, "contribution_id", vote.ContributionID)
	}
	return nil
}

func (s *Store) CountVotes(ctx context.Context, contributionID string) (int, error) {
	var count int
	if err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM workshop_votes WHERE contribution_id = ?`,
		strings.TrimSpace(contributionID),
	).Scan(&count); err != nil {
		return 0, s.logError("workshop_sqlite_count_votes_failed", err, "contribution_id", contributionID)
	}
	return count, nil
}

func (s *Store) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return s.logError("workshop_sqlite_append_outbox_marshal_failed", err,
			"event_id", envelope.EventID,
			"event_type", envelope.EventType,
		)
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	createdAt := envelope.OccurredAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = s.q.ExecContext(ctx,
		`INSERT INTO workshop_outbox (outbox_id, event_type, partition_key, payload, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (outbox_id) DO NOTHING`,
		outboxID, strings.TrimSpace(envelope.EventType), strings.TrimSpace(envelope.PartitionKey),
		payload, outbox.StatusPending, formatTime(createdAt),
	)
	if err != nil {
		return s.logError("workshop_sqlite_append_outbox_insert_failed", err, "outbox_id", outboxID)
	}
	return nil
}

func (s *Store) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.q.QueryContext(ctx,
		`SELECT outbox_id, event_type, partition_key, payload, created_at
		FROM workshop_outbox WHERE status = ?
		ORDER BY created_at ASC, outbox_id ASC LIMIT ?`,
		outbox.StatusPending, limit,
	)
	if err != nil {
		return nil, s.logError("workshop_sqlite_list_pending_outbox_failed", err, "limit", limit)
	}
	defer rows.Close()

	items := make([]ports.OutboxMessage, 0)
	for rows.Next() {
		var (
			message   ports.OutboxMessage
			createdAt string
		)
		if err := rows.Scan(&message.OutboxID, &message.EventType, &message.PartitionKey, &message.Payload, &createdAt); err != nil {
			return nil, s.logError("workshop_sqlite_scan_outbox_failed", err)
		}
		message.CreatedAt = parseTime(createdAt)
		items = append(items, message)
	}
	if err := rows.Err(); err != nil {
		return nil, s.logError("workshop_sqlite_list_pending_outbox_failed", err, "limit", limit)
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE workshop_outbox SET status = ?, published_at = ? WHERE outbox_id = ?`,
		outbox.StatusPublished, formatTime(publishedAt), strings.TrimSpace(outboxID),
	)
	if err != nil {
		return s.logError("workshop_sqlite_mark_outbox_published_failed", err, "outbox_id", outboxID)
	}
	return nil
}

func (s *Store) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "ideation/workshop-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	s.logger.Error("workshop sqlite operation failed", fields...)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTopic(row scanner) (entities.Topic, error) {
	var (
		topic     entities.Topic
		createdAt string
		lockedAt  sql.NullString
	)
	if err := row.Scan(&topic.TopicID, &topic.SessionID, &topic.Domain, &topic.Name,
		&topic.SortOrder, &topic.Locked, &createdAt, &lockedAt); err != nil {
		return entities.Topic{}, err
	}
	topic.CreatedAt = parseTime(createdAt)
	topic.LockedAt = parseTimePtr(lockedAt)
	return topic, nil
}

func scanParticipant(row scanner) (entities.Participant, error) {
	var (
		participant entities.Participant
		status      string
		joinedAt    string
		submittedAt sql.NullString
	)
	if err := row.Scan(&participant.SessionID, &participant.ParticipantID, &participant.DisplayName,
		&participant.Contact, &status, &joinedAt, &submittedAt); err != nil {
		return entities.Participant{}, err
	}
	participant.Status = entities.ParticipantStatus(status)
	participant.JoinedAt = parseTime(joinedAt)
	participant.SubmittedAt = parseTimePtr(submittedAt)
	return participant, nil
}

func scanContribution(row scanner) (entities.Contribution, error) {
	var (
		contribution entities.Contribution
		submittedAt  string
	)
	if err := row.Scan(&contribution.ContributionID, &contribution.SessionID, &contribution.TopicID,
		&contribution.ParticipantID, &contribution.CurrentStatus, &contribution.MinorImpact,
		&contribution.Disruption, &contribution.Reimagination, &submittedAt); err != nil {
		return entities.Contribution{}, err
	}
	contribution.SubmittedAt = parseTime(submittedAt)
	return contribution, nil
}

func requireRow(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func formatTime(value time.Time) string {
	return value.UTC().Format(timeLayout)
}

func formatTimePtr(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func parseTime(value string) time.Time {
	parsed, err := time.Parse(timeLayout, value)
	if err != nil {
		parsed, _ = time.Parse(time.RFC3339Nano, value)
	}
	return parsed.UTC()
}

func parseTimePtr(value sql.NullString) *time.Time {
	if !value.Valid {
		return nil
	}
	parsed := parseTime(value.String)
	return &parsed
}
