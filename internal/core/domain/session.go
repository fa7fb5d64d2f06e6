package domain

import "time"

type SessionID string

// ResolutionState tracks how the session's role was established.
type ResolutionState string

const (
	ResolutionIdle      ResolutionState = "idle"
	ResolutionResolving ResolutionState = "resolving"
	// ResolutionResolved means the role came from an authoritative store read
	// (or an explicit override).
	ResolutionResolved ResolutionState = "resolved"
	// ResolutionFallback means the store did not answer in time and the role
	// was produced by the default rule.
	ResolutionFallback ResolutionState = "fallback"
)

// Session is the single live authenticated context. Generation tags every
// resolution attempt so an outcome belonging to a superseded session is
// discarded instead of clobbering the current one.
type Session struct {
	ID         SessionID
	Generation uint64
	UserID     UserID
	EmailHint  string
	Role       Role
	State      ResolutionState
	StartedAt  time.Time
}

// SessionEventType identifies notify-hub broadcasts about session changes.
type SessionEventType string

const (
	EventSessionResolved SessionEventType = "session.resolved"
	EventRoleChanged     SessionEventType = "role.changed"
	EventSessionEnded    SessionEventType = "session.ended"
)

type SessionEvent struct {
	Type   SessionEventType `json:"type"`
	UserID UserID           `json:"user_id,omitempty"`
	Role   Role             `json:"role,omitempty"`
	State  ResolutionState  `json:"state,omitempty"`
	At     time.Time        `json:"at"`
}
