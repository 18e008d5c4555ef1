package attendance

import (
	"context"
	"time"

	"attendance/internal/course"
	"attendance/internal/session"
	"attendance/internal/student"
)

// CourseStore resolves course ids.
type CourseStore interface {
	Get(ctx context.Context, id string) (*course.Course, error)
}

// StudentStore resolves the external student id presented at scan time,
// enrollment set included.
type StudentStore interface {
	GetByRef(ctx context.Context, ref string) (*student.Student, error)
}

// EventStore persists attendance events.
type EventStore interface {
	Find(ctx context.Context, courseID, studentID, sessionID string) (*Event, error)
	Insert(ctx context.Context, evt Event) (Event, error)
}

// Service validates presented session tokens and records attendance.
type Service struct {
	courses  CourseStore
	students StudentStore
	events   EventStore
	ttl      time.Duration
	now      func() time.Time
}

// NewService creates a recorder. ttl is the token validity window.
func NewService(courses CourseStore, students StudentStore, events EventStore, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		courses:  courses,
		students: students,
		events:   events,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Record runs the validation pipeline and persists one event on success.
// Checks run in order and short-circuit: course exists, student exists,
// student enrolled, token unexpired, no prior event for the triple. The
// token is judged purely by its own embedded issuance time, never by the
// course's current session pointer. Both the pre-check and the store's
// unique constraint guard against duplicates; under a race the constraint
// decides and the loser gets ErrAlreadyRecorded.
func (s *Service) Record(ctx context.Context, tok session.Token, studentRef string) (Event, error) {
	c, err := s.courses.Get(ctx, tok.CourseID)
	if err != nil {
		return Event{}, err
	}
	if c == nil {
		return Event{}, ErrCourseNotFound
	}

	st, err := s.students.GetByRef(ctx, studentRef)
	if err != nil {
		return Event{}, err
	}
	if st == nil {
		return Event{}, ErrStudentNotFound
	}

	if !st.EnrolledIn(c.ID) {
		return Event{}, ErrNotEnrolled
	}

	now := s.now()
	if now.Sub(tok.IssuedAt) >= s.ttl {
		return Event{}, ErrTokenExpired
	}

	existing, err := s.events.Find(ctx, c.ID, st.ID, tok.SessionID)
	if err != nil {
		return Event{}, err
	}
	if existing != nil {
		return Event{}, ErrAlreadyRecorded
	}

	return s.events.Insert(ctx, Event{
		CourseID:   c.ID,
		StudentID:  st.ID,
		SessionID:  tok.SessionID,
		Status:     StatusPresent,
		RecordedAt: now,
	})
}
