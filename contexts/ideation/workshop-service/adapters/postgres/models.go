package postgresadapter

import (
	"time"

	"ideaforge/contexts/ideation/workshop-service/domain/entities"
)

type sessionModel struct {
	SessionID   string    `gorm:"column:session_id;primaryKey"`
	Name        string    `gorm:"column:name"`
	ModeratorID string    `gorm:"column:moderator_id"`
	State       string    `gorm:"column:state"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (sessionModel) TableName() string {
	return "workshop_sessions"
}

func (m sessionModel) toEntity() entities.Session {
	return entities.Session{
		SessionID:   m.SessionID,
		Name:        m.Name,
		ModeratorID: m.ModeratorID,
		State:       entities.SessionState(m.State),
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type topicModel struct {
	TopicID   string     `gorm:"column:topic_id;primaryKey"`
	SessionID string     `gorm:"column:session_id"`
	Domain    string     `gorm:"column:domain"`
	Name      string     `gorm:"column:name"`
	SortOrder int        `gorm:"column:sort_order"`
	Locked    bool       `gorm:"column:locked"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	LockedAt  *time.Time `gorm:"column:locked_at"`
}

func (topicModel) TableName() string {
	return "workshop_topics"
}

func topicModelFromEntity(topic entities.Topic) topicModel {
	return topicModel{
		TopicID:   topic.TopicID,
		SessionID: topic.SessionID,
		Domain:    topic.Domain,
		Name:      topic.Name,
		SortOrder: topic.SortOrder,
		Locked:    topic.Locked,
		CreatedAt: topic.CreatedAt.UTC(),
		LockedAt:  utcPtr(topic.LockedAt),
	}
}

func (m topicModel) toEntity() entities.Topic {
	return entities.Topic{
		TopicID:   m.TopicID,
		SessionID: m.SessionID,
		Domain:    m.Domain,
		Name:      m.Name,
		SortOrder: m.SortOrder,
		Locked:    m.Locked,
		CreatedAt: m.CreatedAt.UTC(),
		LockedAt:  utcPtr(m.LockedAt),
	}
}

type participantModel struct {
	SessionID     string     `gorm:"column:session_id;primaryKey"`
	ParticipantID string     `gorm:"column:participant_id;primaryKey"`
	DisplayName   string     `gorm:"column:display_name"`
	Contact       string     `gorm:"column:contact"`
	Status        string     `gorm:"column:status"`
	JoinedAt      time.Time  `gorm:"column:joined_at"`
	SubmittedAt   *time.Time `gorm:"column:submitted_at"`
}

func (participantModel) TableName() string {
	return "workshop_participants"
}

func participantModelFromEntity(participant entities.Participant) participantModel {
	return participantModel{
		SessionID:     participant.SessionID,
		ParticipantID: participant.ParticipantID,
		DisplayName:   participant.DisplayName,
		Contact:       participant.Contact,
		Status:        string(participant.Status),
		JoinedAt:      participant.JoinedAt.UTC(),
		SubmittedAt:   utcPtr(participant.SubmittedAt),
	}
}

func (m participantModel) toEntity() entities.Participant {
	return entities.Participant{
		SessionID:     m.SessionID,
		ParticipantID: m.ParticipantID,
		DisplayName:   m.DisplayName,
		Contact:       m.Contact,
		Status:        entities.ParticipantStatus(m.Status),
		JoinedAt:      m.JoinedAt.UTC(),
		SubmittedAt:   utcPtr(m.SubmittedAt),
	}
}

type contributionModel struct {
	ContributionID string    `gorm:"column:contribution_id;primaryKey"`
	SessionID      string    `gorm:"column:session_id"`
	TopicID        string    `gorm:"column:topic_id"`
	ParticipantID  string    `gorm:"column:participant_id"`
	CurrentStatus  string    `gorm:"column:current_status"`
	MinorImpact    string    `gorm:"column:minor_impact"`
	Disruption     string    `gorm:"column:disruption"`
	Reimagination  string    `gorm:"column:reimagination"`
	SubmittedAt    time.Time `gorm:"column:submitted_at"`
}

func (contributionModel) TableName() string {
	return "workshop_contributions"
}

func contributionModelFromEntity(contribution entities.Contribution) contributionModel {
	return contributionModel{
		ContributionID: contribution.ContributionID,
		SessionID:      contribution.SessionID,
		TopicID:        contribution.TopicID,
		ParticipantID:  contribution.ParticipantID,
		CurrentStatus:  contribution.CurrentStatus,
		MinorImpact:    contribution.MinorImpact,
		Disruption:     contribution.Disruption,
		Reimagination:  contribution.Reimagination,
		SubmittedAt:    contribution.SubmittedAt.UTC(),
	}
}

func (m contributionModel) toEntity() entities.Contribution {
	return entities.Contribution{
		ContributionID: m.ContributionID,
		SessionID:      m.SessionID,
		TopicID:        m.TopicID,
		ParticipantID:  m.ParticipantID,
		CurrentStatus:  m.CurrentStatus,
		MinorImpact:    m.MinorImpact,
		Disruption:     m.Disruption,
		Reimagination:  m.Reimagination,
		SubmittedAt:    m.SubmittedAt.UTC(),
	}
}

type contributionViewRow struct {
	ContributionID  string    `gorm:"column:contribution_id"`
	TopicID         string    `gorm:"column:topic_id"`
	ParticipantID   string    `gorm:"column:participant_id"`
	ContributorName string    `gorm:"column:contributor_name"`
	CurrentStatus   string    `gorm:"column:current_status"`
	MinorImpact     string    `gorm:"column:minor_impact"`
	Disruption      string    `gorm:"column:disruption"`
	Reimagination   string    `gorm:"column:reimagination"`
	SubmittedAt     time.Time `gorm:"column:submitted_at"`
	Votes           int64     `gorm:"column:votes"`
}

func (m contributionViewRow) toEntity() entities.ContributionView {
	return entities.ContributionView{
		ContributionID:  m.ContributionID,
		TopicID:         m.TopicID,
		ParticipantID:   m.ParticipantID,
		ContributorName: m.ContributorName,
		CurrentStatus:   m.CurrentStatus,
		MinorImpact:     m.MinorImpact,
		Disruption:      m.Disruption,
		Reimagination:   m.Reimagination,
		SubmittedAt:     m.SubmittedAt.UTC(),
		Votes:           int(m.Votes),
	}
}

type voteModel struct {
	VoteID         string    `gorm:"column:vote_id;primaryKey"`
	SessionID      string    `gorm:"column:session_id"`
	ContributionID string    `gorm:"column:contribution_id"`
	VoterID        string    `gorm:"column:voter_id"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (voteModel) TableName() string {
	return "workshop_votes"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "workshop_outbox"
}

func utcPtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	utc := value.UTC()
	return &utc
}
