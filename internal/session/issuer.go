package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"attendance/internal/course"
)

// CourseStore is the course surface the issuer needs.
type CourseStore interface {
	Get(ctx context.Context, id string) (*course.Course, error)
	SetSession(ctx context.Context, id, sessionID string, issuedAt time.Time) error
}

// Issuer creates session tokens for courses.
type Issuer struct {
	courses CourseStore
	now     func() time.Time
	newID   func() string
}

// NewIssuer creates an issuer using the wall clock and random uuid session ids.
func NewIssuer(courses CourseStore) *Issuer {
	return &Issuer{
		courses: courses,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Issue generates a fresh session token for the course and records it as the
// course's current session pointer, replacing any prior one. Earlier tokens
// stay independently valid until their own window elapses.
func (i *Issuer) Issue(ctx context.Context, courseID string) (Token, error) {
	c, err := i.courses.Get(ctx, courseID)
	if err != nil {
		return Token{}, err
	}
	if c == nil {
		return Token{}, course.ErrNotFound
	}

	t := Token{
		CourseID:  courseID,
		SessionID: i.newID(),
		IssuedAt:  i.now(),
	}
	if err := i.courses.SetSession(ctx, courseID, t.SessionID, t.IssuedAt); err != nil {
		return Token{}, err
	}
	return t, nil
}
