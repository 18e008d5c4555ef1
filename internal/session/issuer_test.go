package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance/internal/course"
)

type fakeCourseStore struct {
	courses   map[string]*course.Course
	sessionID string
	issuedAt  time.Time
}

func (f *fakeCourseStore) Get(ctx context.Context, id string) (*course.Course, error) {
	return f.courses[id], nil
}

func (f *fakeCourseStore) SetSession(ctx context.Context, id, sessionID string, issuedAt time.Time) error {
	if _, ok := f.courses[id]; !ok {
		return course.ErrNotFound
	}
	f.sessionID = sessionID
	f.issuedAt = issuedAt
	return nil
}

func TestIssueUnknownCourse(t *testing.T) {
	issuer := NewIssuer(&fakeCourseStore{courses: map[string]*course.Course{}})

	_, err := issuer.Issue(context.Background(), "missing")
	assert.ErrorIs(t, err, course.ErrNotFound)
}

func TestIssueWritesSessionPointer(t *testing.T) {
	store := &fakeCourseStore{courses: map[string]*course.Course{
		"c1": {ID: "c1", Name: "Databases"},
	}}
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	issuer := NewIssuer(store)
	issuer.now = func() time.Time { return now }

	tok, err := issuer.Issue(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", tok.CourseID)
	assert.NotEmpty(t, tok.SessionID)
	assert.True(t, tok.IssuedAt.Equal(now))
	assert.Equal(t, tok.SessionID, store.sessionID)
	assert.True(t, store.issuedAt.Equal(now))
}

func TestIssueTwiceYieldsDistinctSessions(t *testing.T) {
	store := &fakeCourseStore{courses: map[string]*course.Course{
		"c1": {ID: "c1"},
	}}
	issuer := NewIssuer(store)
	n := 0
	issuer.newID = func() string { n++; return fmt.Sprintf("session-%d", n) }

	first, err := issuer.Issue(context.Background(), "c1")
	require.NoError(t, err)
	second, err := issuer.Issue(context.Background(), "c1")
	require.NoError(t, err)

	assert.NotEqual(t, first.SessionID, second.SessionID)
	// The pointer tracks the latest token; earlier tokens stay self-contained.
	assert.Equal(t, second.SessionID, store.sessionID)
}
