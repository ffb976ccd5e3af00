package entities

import "time"

type Report struct {
	SessionID   string
	SessionName string
	State       SessionState
	GeneratedAt time.Time
	Topics      []ReportTopic
}

type ReportTopic struct {
	Domain        string
	Name          string
	SortOrder     int
	TotalVotes    int
	Contributions []ReportContribution
}

// ReportContribution never carries participant or voter identifiers.
type ReportContribution struct {
	ContributionID  string
	ContributorName string
	CurrentStatus   string
	MinorImpact     string
	Disruption      string
	Reimagination   string
	Votes           int
	SubmittedAt     time.Time
}
