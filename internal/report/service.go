package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"attendance/internal/course"
	"attendance/internal/student"
)

// Store is the aggregation query surface.
type Store interface {
	PresentStudents(ctx context.Context, courseID string, dayStart, dayEnd *time.Time) ([]PresentStudent, error)
	EnrolledStudents(ctx context.Context, courseID string) ([]StudentInfo, error)
	DistinctSessionCount(ctx context.Context, courseID string) (int, error)
	AttendedSessionCount(ctx context.Context, courseID, studentID string, dayStart, dayEnd *time.Time) (int, error)
}

// CourseStore resolves and lists courses.
type CourseStore interface {
	Get(ctx context.Context, id string) (*course.Course, error)
	List(ctx context.Context) ([]course.Course, error)
}

// StudentStore lists students with their enrollment sets.
type StudentStore interface {
	List(ctx context.Context) ([]student.Student, error)
}

// Service computes attendance reports from recorded events. Reads are not
// isolated from concurrent scans; reports are advisory.
type Service struct {
	store    Store
	courses  CourseStore
	students StudentStore
}

// NewService creates the aggregation service.
func NewService(store Store, courses CourseStore, students StudentStore) *Service {
	return &Service{store: store, courses: courses, students: students}
}

// DayBounds parses a YYYY-MM-DD date into the local start and end of that
// calendar day, inclusive. An empty date yields nil bounds (no filter).
func DayBounds(date string) (*time.Time, *time.Time, error) {
	if date == "" {
		return nil, nil, nil
	}
	start, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	end := start.Add(24*time.Hour - time.Nanosecond)
	return &start, &end, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CourseReport builds the per-course summary, optionally filtered to one
// calendar day (date in YYYY-MM-DD, empty for all time).
func (s *Service) CourseReport(ctx context.Context, courseID, date string) (*Report, error) {
	c, err := s.courses.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, course.ErrNotFound
	}

	dayStart, dayEnd, err := DayBounds(date)
	if err != nil {
		return nil, err
	}

	present, err := s.store.PresentStudents(ctx, courseID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.store.EnrolledStudents(ctx, courseID)
	if err != nil {
		return nil, err
	}

	presentIDs := make(map[string]bool, len(present))
	for _, p := range present {
		presentIDs[p.ID] = true
	}
	absent := make([]StudentInfo, 0, len(enrolled))
	for _, st := range enrolled {
		if !presentIDs[st.ID] {
			absent = append(absent, st)
		}
	}

	rate := 0.0
	if len(enrolled) > 0 {
		rate = round2(float64(len(present)) / float64(len(enrolled)) * 100)
	}

	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	return &Report{
		Course:          CourseInfo{ID: c.ID, Name: c.Name, Instructor: c.Instructor},
		Date:            date,
		TotalEnrolled:   len(enrolled),
		Present:         len(present),
		Absent:          len(absent),
		AttendanceRate:  rate,
		PresentStudents: present,
		AbsentStudents:  absent,
	}, nil
}

// AllCourses runs CourseReport for every course.
func (s *Service) AllCourses(ctx context.Context, date string) ([]Report, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, err
	}
	reports := make([]Report, 0, len(courses))
	for _, c := range courses {
		rep, err := s.CourseReport(ctx, c.ID, date)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *rep)
	}
	return reports, nil
}

// StudentPercentages ranks every student by attendance across their enrolled
// courses. The denominator is the count of distinct sessions ever recorded
// per course (never date-filtered); the numerator is the student's own
// distinct sessions, date-filtered when a date is given. Sorted by
// percentage descending, stable for ties.
func (s *Service) StudentPercentages(ctx context.Context, date string) ([]StudentStat, error) {
	dayStart, dayEnd, err := DayBounds(date)
	if err != nil {
		return nil, err
	}

	students, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := make([]StudentStat, 0, len(students))
	for _, st := range students {
		total, attended := 0, 0
		for _, courseID := range st.CourseIDs {
			n, err := s.store.DistinctSessionCount(ctx, courseID)
			if err != nil {
				return nil, err
			}
			total += n

			a, err := s.store.AttendedSessionCount(ctx, courseID, st.ID, dayStart, dayEnd)
			if err != nil {
				return nil, err
			}
			attended += a
		}

		pct := 0.0
		if total > 0 {
			pct = round2(float64(attended) / float64(total) * 100)
		}
		stats = append(stats, StudentStat{
			StudentID:            st.ID,
			Name:                 st.Name,
			StudentRef:           st.StudentRef,
			Email:                st.Email,
			TotalSessions:        total,
			AttendedSessions:     attended,
			AttendancePercentage: pct,
			EnrolledCourses:      len(st.CourseIDs),
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].AttendancePercentage > stats[j].AttendancePercentage
	})
	return stats, nil
}
