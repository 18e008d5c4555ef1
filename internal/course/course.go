package course

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a course id does not resolve.
var ErrNotFound = errors.New("course not found")

// Course is a taught class students enroll into. SessionID/SessionIssuedAt
// hold the most recently issued attendance session for display; token
// validity never depends on them.
type Course struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Instructor      string     `json:"instructor"`
	Schedule        string     `json:"schedule,omitempty"`
	Description     string     `json:"description,omitempty"`
	SessionID       *string    `json:"sessionId,omitempty"`
	SessionIssuedAt *time.Time `json:"sessionIssuedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}
