package course

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository persists courses in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new course, assigning an id when missing.
func (r *Repository) Insert(ctx context.Context, c *Course) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO courses (id, name, instructor, schedule, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, c.ID, c.Name, c.Instructor, c.Schedule, c.Description)
	return row.Scan(&c.CreatedAt)
}

// Get returns a course by id, nil when absent.
func (r *Repository) Get(ctx context.Context, id string) (*Course, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, instructor, schedule, description, session_id, session_issued_at, created_at
		FROM courses WHERE id = $1
	`, id)
	var c Course
	if err := row.Scan(&c.ID, &c.Name, &c.Instructor, &c.Schedule, &c.Description, &c.SessionID, &c.SessionIssuedAt, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// List returns all courses, newest first.
func (r *Repository) List(ctx context.Context) ([]Course, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, instructor, schedule, description, session_id, session_issued_at, created_at
		FROM courses
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Instructor, &c.Schedule, &c.Description, &c.SessionID, &c.SessionIssuedAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// SetSession overwrites the course's current session pointer.
func (r *Repository) SetSession(ctx context.Context, id, sessionID string, issuedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE courses SET session_id = $2, session_issued_at = $3 WHERE id = $1
	`, id, sessionID, issuedAt)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearExpiredSessions drops session pointers issued before the cutoff so
// stale descriptors stop being displayed. Returns the number of courses touched.
func (r *Repository) ClearExpiredSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE courses SET session_id = NULL, session_issued_at = NULL
		WHERE session_issued_at IS NOT NULL AND session_issued_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a course along with its attendance events and enrollment
// links, all in one transaction.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_events WHERE course_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM enrollments WHERE course_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}
