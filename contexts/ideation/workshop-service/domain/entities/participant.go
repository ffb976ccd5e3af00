package entities

import (
	"fmt"
	"strings"
	"time"
)

type ParticipantStatus string

const (
	ParticipantStatusJoined    ParticipantStatus = "joined"
	ParticipantStatusSubmitted ParticipantStatus = "submitted"
)

type Participant struct {
	SessionID     string
	ParticipantID string
	DisplayName   string
	Contact       string
	Status        ParticipantStatus
	JoinedAt      time.Time
	SubmittedAt   *time.Time
}

// NormalizeParticipantID maps an external identity (usually an email) to the
// key stored in the roster.
func NormalizeParticipantID(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// FallbackDisplayName labels a participant who joined without a display name
// by roster position. Reports show display names, so this must never carry the
// participant id.
func FallbackDisplayName(position int) string {
	return fmt.Sprintf("Participant %d", position)
}

type RosterStatus struct {
	Total        int
	Submitted    int
	Pending      int
	Participants []Participant
}
