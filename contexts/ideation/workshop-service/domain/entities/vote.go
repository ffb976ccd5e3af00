package entities

import "time"

type Vote struct {
	VoteID         string
	SessionID      string
	ContributionID string
	VoterID        string
	CreatedAt      time.Time
}
