package services

import (
	"fmt"
	"strings"

	"ideaforge/contexts/ideation/workshop-service/domain/entities"
	domainerrors "ideaforge/contexts/ideation/workshop-service/domain/errors"
)

// Lifecycle order. contributing is not listed: it is an input alias of
// published and never stored.
var lifecycle = []entities.SessionState{
	entities.SessionStateSetup,
	entities.SessionStatePublished,
	entities.SessionStateVoting,
	entities.SessionStateVotingLocked,
	entities.SessionStateFinal,
}

// ParseState validates a requested state label and returns its canonical form.
func ParseState(raw string) (entities.SessionState, error) {
	state := Canonical(entities.SessionState(strings.ToLower(strings.TrimSpace(raw))))
	if position(state) < 0 {
		return "", fmt.Errorf("%w: %q", domainerrors.ErrUnknownState, strings.TrimSpace(raw))
	}
	return state, nil
}

// Canonical folds the contributing alias into published.
func Canonical(state entities.SessionState) entities.SessionState {
	if state == entities.SessionStateContributing {
		return entities.SessionStatePublished
	}
	return state
}

// ValidateTransition enforces strictly forward, single-step transitions.
// Requesting the current state is accepted as a no-op.
func ValidateTransition(from entities.SessionState, to entities.SessionState) error {
	fromPos := position(Canonical(from))
	toPos := position(Canonical(to))
	if toPos < 0 {
		return fmt.Errorf("%w: %q", domainerrors.ErrUnknownState, to)
	}
	if fromPos == toPos {
		return nil
	}
	if fromPos < 0 || toPos != fromPos+1 {
		return fmt.Errorf("%w: %s -> %s", domainerrors.ErrInvalidTransition, from, to)
	}
	return nil
}

// IsTerminal reports whether no transition leaves state.
func IsTerminal(state entities.SessionState) bool {
	return Canonical(state) == entities.SessionStateFinal
}

func AllowsTopicChanges(state entities.SessionState) bool {
	return Canonical(state) == entities.SessionStateSetup
}

// AllowsContributions is true for published and its contributing alias.
func AllowsContributions(state entities.SessionState) bool {
	return Canonical(state) == entities.SessionStatePublished
}

func AllowsVoting(state entities.SessionState) bool {
	return Canonical(state) == entities.SessionStateVoting
}

func AllowsJoin(state entities.SessionState) bool {
	return !IsTerminal(state)
}

// AllTopicsLocked is true only for a non-empty topic list without unlocked
// entries.
func AllTopicsLocked(topics []entities.Topic) bool {
	if len(topics) == 0 {
		return false
	}
	for _, topic := range topics {
		if !topic.Locked {
			return false
		}
	}
	return true
}

func position(state entities.SessionState) int {
	for i, item := range lifecycle {
		if item == state {
			return i
		}
	}
	return -1
}
