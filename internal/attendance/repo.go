package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists attendance events in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Find returns the event for a (course, student, session) triple, nil when absent.
func (r *Repository) Find(ctx context.Context, courseID, studentID, sessionID string) (*Event, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, course_id, student_id, session_id, status, recorded_at
		FROM attendance_events
		WHERE course_id = $1 AND student_id = $2 AND session_id = $3
	`, courseID, studentID, sessionID)
	var evt Event
	if err := row.Scan(&evt.ID, &evt.CourseID, &evt.StudentID, &evt.SessionID, &evt.Status, &evt.RecordedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &evt, nil
}

// Insert writes a new event. The unique constraint on
// (course_id, student_id, session_id) is the source of truth for
// at-most-once recording: a concurrent duplicate insert loses the race and
// comes back as ErrAlreadyRecorded.
func (r *Repository) Insert(ctx context.Context, evt Event) (Event, error) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_events (id, course_id, student_id, session_id, status, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, evt.ID, evt.CourseID, evt.StudentID, evt.SessionID, evt.Status, evt.RecordedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Event{}, ErrAlreadyRecorded
		}
		return Event{}, err
	}
	return evt, nil
}

// ListRecords returns events joined with course and student metadata,
// optionally filtered by course and by calendar day, newest first.
func (r *Repository) ListRecords(ctx context.Context, courseID string, dayStart, dayEnd *time.Time) ([]Record, error) {
	query := `
		SELECT e.id, e.course_id, e.student_id, e.session_id, e.status, e.recorded_at,
		       c.name, s.name, s.student_ref
		FROM attendance_events e
		JOIN courses c ON c.id = e.course_id
		JOIN students s ON s.id = e.student_id
	`
	args := []any{}
	where := ""
	if courseID != "" {
		args = append(args, courseID)
		where = " WHERE e.course_id = $1"
	}
	if dayStart != nil && dayEnd != nil {
		if where == "" {
			where = " WHERE"
		} else {
			where += " AND"
		}
		args = append(args, *dayStart, *dayEnd)
		where += " e.recorded_at >= $" + itoa(len(args)-1) + " AND e.recorded_at <= $" + itoa(len(args))
	}
	query += where + " ORDER BY e.recorded_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.CourseID, &rec.StudentID, &rec.SessionID, &rec.Status, &rec.RecordedAt,
			&rec.CourseName, &rec.StudentName, &rec.StudentRef); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

func itoa(i int) string { return fmt.Sprintf("%d", i) }
