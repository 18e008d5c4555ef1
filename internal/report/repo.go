package report

import (
	"context"
	"database/sql"
	"time"
)

// Repository runs the aggregation queries against Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// PresentStudents returns distinct students with at least one event for the
// course in the window, each with their earliest qualifying timestamp.
func (r *Repository) PresentStudents(ctx context.Context, courseID string, dayStart, dayEnd *time.Time) ([]PresentStudent, error) {
	query := `
		SELECT s.id, s.name, s.student_ref, s.email, MIN(e.recorded_at)
		FROM attendance_events e
		JOIN students s ON s.id = e.student_id
		WHERE e.course_id = $1
	`
	args := []any{courseID}
	if dayStart != nil && dayEnd != nil {
		query += ` AND e.recorded_at >= $2 AND e.recorded_at <= $3`
		args = append(args, *dayStart, *dayEnd)
	}
	query += `
		GROUP BY s.id, s.name, s.student_ref, s.email
		ORDER BY MIN(e.recorded_at)
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []PresentStudent
	for rows.Next() {
		var p PresentStudent
		if err := rows.Scan(&p.ID, &p.Name, &p.StudentRef, &p.Email, &p.Timestamp); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// EnrolledStudents returns the course roster.
func (r *Repository) EnrolledStudents(ctx context.Context, courseID string) ([]StudentInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.name, s.student_ref, s.email
		FROM enrollments en
		JOIN students s ON s.id = en.student_id
		WHERE en.course_id = $1
		ORDER BY s.name
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []StudentInfo
	for rows.Next() {
		var s StudentInfo
		if err := rows.Scan(&s.ID, &s.Name, &s.StudentRef, &s.Email); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// DistinctSessionCount counts sessions that received at least one scan for
// the course. Sessions with zero scans are invisible here.
func (r *Repository) DistinctSessionCount(ctx context.Context, courseID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT session_id) FROM attendance_events WHERE course_id = $1
	`, courseID).Scan(&n)
	return n, err
}

// AttendedSessionCount counts distinct sessions the student has events for
// in the course, optionally restricted to a day window.
func (r *Repository) AttendedSessionCount(ctx context.Context, courseID, studentID string, dayStart, dayEnd *time.Time) (int, error) {
	query := `
		SELECT COUNT(DISTINCT session_id) FROM attendance_events
		WHERE course_id = $1 AND student_id = $2
	`
	args := []any{courseID, studentID}
	if dayStart != nil && dayEnd != nil {
		query += ` AND recorded_at >= $3 AND recorded_at <= $4`
		args = append(args, *dayStart, *dayEnd)
	}
	var n int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}
