package entities

import "time"

type Topic struct {
	TopicID   string
	SessionID string
	Domain    string
	Name      string
	SortOrder int
	Locked    bool
	CreatedAt time.Time
	LockedAt  *time.Time
}
