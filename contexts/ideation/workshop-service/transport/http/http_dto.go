package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateSessionRequest struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Contact     string `json:"contact"`
}

type SetStateRequest struct {
	State string `json:"state"`
}

type AddTopicRequest struct {
	Domain string `json:"domain"`
	Name   string `json:"name"`
}

type UpdateTopicRequest struct {
	Domain string `json:"domain"`
	Name   string `json:"name"`
}

type JoinRequest struct {
	DisplayName string `json:"display_name"`
	Contact     string `json:"contact"`
}

type ContributionItemDTO struct {
	TopicID       string `json:"topic_id"`
	CurrentStatus string `json:"current_status"`
	MinorImpact   string `json:"minor_impact"`
	Disruption    string `json:"disruption"`
	Reimagination string `json:"reimagination"`
}

type SubmitContributionsRequest struct {
	Items []ContributionItemDTO `json:"items"`
}

type SessionDTO struct {
	SessionID   string `json:"session_id"`
	Name        string `json:"name"`
	ModeratorID string `json:"moderator_id"`
	State       string `json:"state"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type SessionResponse struct {
	Session SessionDTO `json:"session"`
}

type TopicDTO struct {
	TopicID   string `json:"topic_id"`
	Domain    string `json:"domain"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
	Locked    bool   `json:"locked"`
	LockedAt  string `json:"locked_at,omitempty"`
}

type TopicResponse struct {
	Topic TopicDTO `json:"topic"`
}

type ListTopicsResponse struct {
	Items           []TopicDTO `json:"items"`
	AllTopicsLocked bool       `json:"all_topics_locked"`
}

type ParticipantDTO struct {
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	Status        string `json:"status"`
	JoinedAt      string `json:"joined_at"`
	SubmittedAt   string `json:"submitted_at,omitempty"`
}

type JoinResponse struct {
	Participant ParticipantDTO `json:"participant"`
	Created     bool           `json:"created"`
}

type RosterStatusResponse struct {
	Total        int              `json:"total"`
	Submitted    int              `json:"submitted"`
	Pending      int              `json:"pending"`
	Participants []ParticipantDTO `json:"participants"`
}

type SubmitContributionsResponse struct {
	Saved int `json:"saved"`
}

// ContributionDTO carries the live vote count only. Voter identities are never
// part of any response.
type ContributionDTO struct {
	ContributionID  string `json:"contribution_id"`
	ContributorName string `json:"contributor_name"`
	CurrentStatus   string `json:"current_status"`
	MinorImpact     string `json:"minor_impact"`
	Disruption      string `json:"disruption"`
	Reimagination   string `json:"reimagination"`
	SubmittedAt     string `json:"submitted_at"`
	Votes           int    `json:"votes"`
	Own             bool   `json:"own"`
}

type TopicContributionsDTO struct {
	Topic         TopicDTO          `json:"topic"`
	Contributions []ContributionDTO `json:"contributions"`
}

type ListContributionsResponse struct {
	Items []TopicContributionsDTO `json:"items"`
}

type VoteResponse struct {
	ContributionID string `json:"contribution_id"`
	Votes          int    `json:"votes"`
}
