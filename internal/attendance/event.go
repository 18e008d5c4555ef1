package attendance

import (
	"errors"
	"time"
)

// Validation failures surfaced by Record, in pipeline order.
var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrNotEnrolled     = errors.New("student not enrolled in this course")
	ErrTokenExpired    = errors.New("session token has expired")
	ErrAlreadyRecorded = errors.New("attendance already recorded for this session")
)

// Event statuses. Only StatusPresent is produced by the scan path; the
// others are reserved.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
)

// Event is one recorded attendance. The (CourseID, StudentID, SessionID)
// triple is unique; an event is written once and never mutated.
type Event struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"courseId"`
	StudentID  string    `json:"studentId"`
	SessionID  string    `json:"sessionId"`
	Status     string    `json:"status"`
	RecordedAt time.Time `json:"timestamp"`
}

// Record is an event joined with course and student metadata for listings.
type Record struct {
	Event
	CourseName  string `json:"courseName"`
	StudentName string `json:"studentName"`
	StudentRef  string `json:"studentRef"`
}
