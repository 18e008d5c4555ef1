package student

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a student id does not resolve.
	ErrNotFound = errors.New("student not found")
	// ErrDuplicateRef is returned when the external student identifier is taken.
	ErrDuplicateRef = errors.New("student id already exists")
)

// Student is a class member. StudentRef is the externally issued student
// number, unique across all students. CourseIDs is the enrollment set.
type Student struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StudentRef string    `json:"studentId"`
	Email      string    `json:"email,omitempty"`
	CourseIDs  []string  `json:"courseIds"`
	CreatedAt  time.Time `json:"createdAt"`
}

// EnrolledIn reports whether the student's enrollment set contains the course.
func (s *Student) EnrolledIn(courseID string) bool {
	for _, id := range s.CourseIDs {
		if id == courseID {
			return true
		}
	}
	return false
}
