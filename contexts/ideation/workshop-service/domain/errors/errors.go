package errors

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrSessionNotFound      = errors.New("session not found")
	ErrTopicNotFound        = errors.New("topic not found")
	ErrParticipantNotFound  = errors.New("participant has not joined the session")
	ErrContributionNotFound = errors.New("contribution not found")
	ErrInvalidSessionState  = errors.New("operation not allowed in current session state")
	ErrTopicsNotLocked      = errors.New("all topics must be locked before publishing")
	ErrVotingNotEnabled     = errors.New("voting is not enabled")
	ErrEmptySubmission      = errors.New("submission contains no items")
	ErrTopicAlreadyLocked   = errors.New("topic is already locked")
	ErrTopicLocked          = errors.New("topic is locked")
	ErrDuplicateVote        = errors.New("vote already cast for this contribution")
	ErrSelfVoteForbidden    = errors.New("self voting is forbidden")
	ErrNotAuthorized        = errors.New("only the session moderator may perform this action")
	ErrSessionFinalized     = errors.New("session is finalized")
	ErrUnknownState         = errors.New("unknown session state")
	ErrInvalidTransition    = errors.New("invalid session state transition")
)

type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindInvalidInput        Kind = "invalid_input"
	KindInvalidSessionState Kind = "invalid_session_state"
	KindAlreadyLocked       Kind = "already_locked"
	KindDuplicateVote       Kind = "duplicate_vote"
	KindSelfVoteForbidden   Kind = "self_vote_forbidden"
	KindNotAuthorized       Kind = "not_authorized"
	KindSessionFinalized    Kind = "session_finalized"
	KindUnknownState        Kind = "unknown_state"
	KindInvalidTransition   Kind = "invalid_transition"
	KindInternal            Kind = "internal"
)

// KindOf classifies err into the workshop error taxonomy. Anything that is not
// a workshop sentinel is internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrTopicNotFound),
		errors.Is(err, ErrParticipantNotFound),
		errors.Is(err, ErrContributionNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrEmptySubmission):
		return KindInvalidInput
	case errors.Is(err, ErrInvalidSessionState),
		errors.Is(err, ErrTopicsNotLocked),
		errors.Is(err, ErrVotingNotEnabled):
		return KindInvalidSessionState
	case errors.Is(err, ErrTopicAlreadyLocked),
		errors.Is(err, ErrTopicLocked):
		return KindAlreadyLocked
	case errors.Is(err, ErrDuplicateVote):
		return KindDuplicateVote
	case errors.Is(err, ErrSelfVoteForbidden):
		return KindSelfVoteForbidden
	case errors.Is(err, ErrNotAuthorized):
		return KindNotAuthorized
	case errors.Is(err, ErrSessionFinalized):
		return KindSessionFinalized
	case errors.Is(err, ErrUnknownState):
		return KindUnknownState
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	default:
		return KindInternal
	}
}
