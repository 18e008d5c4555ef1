package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance/internal/course"
	"attendance/internal/session"
	"attendance/internal/student"
)

type fakeCourseStore struct {
	courses map[string]*course.Course
}

func (f *fakeCourseStore) Get(ctx context.Context, id string) (*course.Course, error) {
	return f.courses[id], nil
}

type fakeStudentStore struct {
	students map[string]*student.Student
}

func (f *fakeStudentStore) GetByRef(ctx context.Context, ref string) (*student.Student, error) {
	return f.students[ref], nil
}

type fakeEventStore struct {
	events    map[string]Event
	insertErr error
}

func key(courseID, studentID, sessionID string) string {
	return courseID + "|" + studentID + "|" + sessionID
}

func (f *fakeEventStore) Find(ctx context.Context, courseID, studentID, sessionID string) (*Event, error) {
	if evt, ok := f.events[key(courseID, studentID, sessionID)]; ok {
		return &evt, nil
	}
	return nil, nil
}

func (f *fakeEventStore) Insert(ctx context.Context, evt Event) (Event, error) {
	if f.insertErr != nil {
		return Event{}, f.insertErr
	}
	k := key(evt.CourseID, evt.StudentID, evt.SessionID)
	if _, ok := f.events[k]; ok {
		return Event{}, ErrAlreadyRecorded
	}
	evt.ID = "evt-1"
	f.events[k] = evt
	return evt, nil
}

func newRecorder(events *fakeEventStore, now time.Time) *Service {
	courses := &fakeCourseStore{courses: map[string]*course.Course{
		"c1": {ID: "c1", Name: "Databases"},
	}}
	students := &fakeStudentStore{students: map[string]*student.Student{
		"STU-100": {ID: "s1", Name: "Ada", StudentRef: "STU-100", CourseIDs: []string{"c1"}},
		"STU-200": {ID: "s2", Name: "Bob", StudentRef: "STU-200", CourseIDs: []string{"other"}},
	}}
	svc := NewService(courses, students, events, 5*time.Minute)
	svc.now = func() time.Time { return now }
	return svc
}

func token(issuedAt time.Time) session.Token {
	return session.Token{CourseID: "c1", SessionID: "sess-1", IssuedAt: issuedAt}
}

func TestRecordSuccess(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 5, 0, 0, time.UTC)
	events := &fakeEventStore{events: map[string]Event{}}
	svc := newRecorder(events, now)

	evt, err := svc.Record(context.Background(), token(now.Add(-time.Minute)), "STU-100")
	require.NoError(t, err)
	assert.Equal(t, "c1", evt.CourseID)
	assert.Equal(t, "s1", evt.StudentID)
	assert.Equal(t, "sess-1", evt.SessionID)
	assert.Equal(t, StatusPresent, evt.Status)
	assert.True(t, evt.RecordedAt.Equal(now))
}

func TestRecordUnknownCourse(t *testing.T) {
	now := time.Now()
	svc := newRecorder(&fakeEventStore{events: map[string]Event{}}, now)

	tok := session.Token{CourseID: "missing", SessionID: "sess-1", IssuedAt: now}
	_, err := svc.Record(context.Background(), tok, "STU-100")
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestRecordUnknownStudent(t *testing.T) {
	now := time.Now()
	svc := newRecorder(&fakeEventStore{events: map[string]Event{}}, now)

	_, err := svc.Record(context.Background(), token(now), "missing")
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestRecordNotEnrolled(t *testing.T) {
	now := time.Now()
	svc := newRecorder(&fakeEventStore{events: map[string]Event{}}, now)

	// Valid unexpired token, but s2 is not on the course roster.
	_, err := svc.Record(context.Background(), token(now), "STU-200")
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestRecordExpiryBoundary(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 5, 0, 0, time.UTC)

	cases := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{"299s passes", 299 * time.Second, nil},
		{"300s rejected", 300 * time.Second, ErrTokenExpired},
		{"301s rejected", 301 * time.Second, ErrTokenExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newRecorder(&fakeEventStore{events: map[string]Event{}}, now)
			_, err := svc.Record(context.Background(), token(now.Add(-tc.elapsed)), "STU-100")
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestRecordOldTokenValidAfterNewIssue(t *testing.T) {
	// A token is judged by its own issuance time only; issuing a newer
	// session does not invalidate a still-unexpired older token.
	now := time.Date(2025, 3, 14, 9, 5, 0, 0, time.UTC)
	events := &fakeEventStore{events: map[string]Event{}}
	svc := newRecorder(events, now)

	old := session.Token{CourseID: "c1", SessionID: "old-sess", IssuedAt: now.Add(-2 * time.Minute)}
	_, err := svc.Record(context.Background(), old, "STU-100")
	assert.NoError(t, err)
}

func TestRecordDuplicate(t *testing.T) {
	now := time.Now()
	events := &fakeEventStore{events: map[string]Event{}}
	svc := newRecorder(events, now)

	_, err := svc.Record(context.Background(), token(now), "STU-100")
	require.NoError(t, err)

	_, err = svc.Record(context.Background(), token(now), "STU-100")
	assert.ErrorIs(t, err, ErrAlreadyRecorded)
}

func TestRecordConstraintRace(t *testing.T) {
	// A concurrent insert can slip between the pre-check and the write; the
	// store surfaces the constraint violation and the caller sees the same
	// duplicate error.
	now := time.Now()
	events := &fakeEventStore{events: map[string]Event{}, insertErr: ErrAlreadyRecorded}
	svc := newRecorder(events, now)

	_, err := svc.Record(context.Background(), token(now), "STU-100")
	assert.ErrorIs(t, err, ErrAlreadyRecorded)
}

func TestRecordValidationOrder(t *testing.T) {
	// Enrollment is checked before expiration: an expired token for a
	// non-enrolled student still reports the enrollment failure.
	now := time.Now()
	svc := newRecorder(&fakeEventStore{events: map[string]Event{}}, now)

	tok := session.Token{CourseID: "c1", SessionID: "sess-1", IssuedAt: now.Add(-time.Hour)}
	_, err := svc.Record(context.Background(), tok, "STU-200")
	assert.ErrorIs(t, err, ErrNotEnrolled)
}
