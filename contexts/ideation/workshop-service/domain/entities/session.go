package entities

import "time"

type SessionState string

const (
	SessionStateSetup        SessionState = "setup"
	SessionStatePublished    SessionState = "published"
	SessionStateContributing SessionState = "contributing"
	SessionStateVoting       SessionState = "voting"
	SessionStateVotingLocked SessionState = "voting_locked"
	SessionStateFinal        SessionState = "final"
)

type Session struct {
	SessionID   string
	Name        string
	ModeratorID string
	State       SessionState
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsModerator reports whether participantID owns the session. Identities are
// compared after normalisation.
func (s Session) IsModerator(participantID string) bool {
	return s.ModeratorID != "" && s.ModeratorID == NormalizeParticipantID(participantID)
}
