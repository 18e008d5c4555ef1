package report

import "time"

// CourseInfo is the course metadata echoed in reports.
type CourseInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Instructor string `json:"instructor"`
}

// PresentStudent is a student with at least one qualifying event; Timestamp
// is the earliest such event.
type PresentStudent struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StudentRef string    `json:"studentId"`
	Email      string    `json:"email,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// StudentInfo identifies an enrolled student without an event.
type StudentInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	StudentRef string `json:"studentId"`
	Email      string `json:"email,omitempty"`
}

// Report is the per-course attendance summary. Presence is per student, not
// per session: one qualifying event on the date (or ever, when no date is
// given) counts the student present once.
type Report struct {
	Course          CourseInfo       `json:"course"`
	Date            string           `json:"date"`
	TotalEnrolled   int              `json:"totalEnrolled"`
	Present         int              `json:"present"`
	Absent          int              `json:"absent"`
	AttendanceRate  float64          `json:"attendanceRate"`
	PresentStudents []PresentStudent `json:"presentStudents"`
	AbsentStudents  []StudentInfo    `json:"absentStudents"`
}

// StudentStat is one row of the cross-course attendance ranking.
type StudentStat struct {
	StudentID            string  `json:"studentId"`
	Name                 string  `json:"name"`
	StudentRef           string  `json:"studentIdNumber"`
	Email                string  `json:"email,omitempty"`
	TotalSessions        int     `json:"totalSessions"`
	AttendedSessions     int     `json:"attendedSessions"`
	AttendancePercentage float64 `json:"attendancePercentage"`
	EnrolledCourses      int     `json:"enrolledCourses"`
}
