package ports

import (
	"context"
	"time"

	"ideaforge/contexts/ideation/workshop-service/domain/entities"
	"ideaforge/internal/shared/events"
	"ideaforge/internal/shared/outbox"
)

// LockMode selects the row lock taken when a session is read inside a
// transaction. Stores without row locks may ignore it.
type LockMode int

const (
	LockNone LockMode = iota
	LockShare
	LockUpdate
)

type SessionRepository interface {
	CreateSession(ctx context.Context, session entities.Session) error
	GetSession(ctx context.Context, sessionID string, lock LockMode) (entities.Session, error)
	UpdateSessionState(ctx context.Context, sessionID string, state entities.SessionState, updatedAt time.Time) error
	DeleteSession(ctx context.Context, sessionID string) error
}

type TopicRepository interface {
	CreateTopic(ctx context.Context, topic entities.Topic) error
	UpdateTopic(ctx context.Context, topic entities.Topic) error
	GetTopic(ctx context.Context, sessionID string, topicID string) (entities.Topic, error)
	ListTopics(ctx context.Context, sessionID string) ([]entities.Topic, error)
	NextTopicSortOrder(ctx context.Context, sessionID string) (int, error)
}

type ParticipantRepository interface {
	// InsertParticipant stores a roster row unless (session, participant)
	// already exists. created is false for an existing row.
	InsertParticipant(ctx context.Context, participant entities.Participant) (created bool, err error)
	GetParticipant(ctx context.Context, sessionID string, participantID string) (entities.Participant, error)
	ListParticipants(ctx context.Context, sessionID string) ([]entities.Participant, error)
	MarkSubmitted(ctx context.Context, sessionID string, participantID string, submittedAt time.Time) error
}

type ContributionRepository interface {
	// UpsertContribution inserts or overwrites the row keyed on
	// (session, topic, participant) and returns the stored row.
	UpsertContribution(ctx context.Context, contribution entities.Contribution) (entities.Contribution, error)
	GetContribution(ctx context.Context, sessionID string, contributionID string) (entities.Contribution, error)
	// ListContributionViews returns every contribution of the session with its
	// live vote count, ordered by submission time.
	ListContributionViews(ctx context.Context, sessionID string) ([]entities.ContributionView, error)
}

type VoteRepository interface {
	HasVote(ctx context.Context, contributionID string, voterID string) (bool, error)
	// InsertVote returns domainerrors.ErrDuplicateVote when the
	// (contribution, voter) uniqueness constraint rejects the row.
	InsertVote(ctx context.Context, vote entities.Vote) error
	CountVotes(ctx context.Context, contributionID string) (int, error)
}

type EventEnvelope = events.Envelope

type OutboxMessage = outbox.Message

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// Tx is the repository surface available inside one store transaction.
type Tx interface {
	SessionRepository
	TopicRepository
	ParticipantRepository
	ContributionRepository
	VoteRepository
	OutboxWriter
}

// Store runs fn inside a single transaction. fn's error rolls everything
// back; a nil return commits. Reads outside Atomic go through the embedded
// Tx surface against the shared pool.
type Store interface {
	Tx
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type EventPublisher interface {
	Publish(ctx context.Context, subject string, event EventEnvelope) error
}

type Metrics interface {
	SessionCreated()
	StateChanged(from entities.SessionState, to entities.SessionState)
	ContributionsSubmitted(count int)
	VoteCast()
	VoteRejected(reason string)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
