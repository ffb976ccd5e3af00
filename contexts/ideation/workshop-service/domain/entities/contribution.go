package entities

import "time"

type Contribution struct {
	ContributionID string
	SessionID      string
	TopicID        string
	ParticipantID  string
	CurrentStatus  string
	MinorImpact    string
	Disruption     string
	Reimagination  string
	SubmittedAt    time.Time
}

// ContributionItem is one entry of a participant's submission batch.
type ContributionItem struct {
	TopicID       string
	CurrentStatus string
	MinorImpact   string
	Disruption    string
	Reimagination string
}

// ContributionView is the read model used for voting screens. It carries the
// live vote count but never the identities of voters.
type ContributionView struct {
	ContributionID  string
	TopicID         string
	ParticipantID   string
	ContributorName string
	CurrentStatus   string
	MinorImpact     string
	Disruption      string
	Reimagination   string
	SubmittedAt     time.Time
	Votes           int
	Own             bool
}

type TopicContributions struct {
	Topic         Topic
	Contributions []ContributionView
}
