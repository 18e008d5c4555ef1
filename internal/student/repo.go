package student

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists students and their enrollments in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Insert writes a new student together with the initial enrollment set.
// Returns ErrDuplicateRef when the external student id is already taken.
func (r *Repository) Insert(ctx context.Context, s *Student) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		INSERT INTO students (id, name, student_ref, email)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, s.ID, s.Name, s.StudentRef, s.Email)
	if err := row.Scan(&s.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateRef
		}
		return err
	}
	for _, courseID := range s.CourseIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO enrollments (student_id, course_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, s.ID, courseID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repository) courseIDs(ctx context.Context, q interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}, studentID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT course_id FROM enrollments WHERE student_id = $1`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Get returns a student with their enrollment set, nil when absent.
func (r *Repository) Get(ctx context.Context, id string) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, student_ref, email, created_at FROM students WHERE id = $1
	`, id)
	var s Student
	if err := row.Scan(&s.ID, &s.Name, &s.StudentRef, &s.Email, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	ids, err := r.courseIDs(ctx, r.db, s.ID)
	if err != nil {
		return nil, err
	}
	s.CourseIDs = ids
	return &s, nil
}

// GetByRef returns a student by their external student id, nil when absent.
func (r *Repository) GetByRef(ctx context.Context, ref string) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, student_ref, email, created_at FROM students WHERE student_ref = $1
	`, ref)
	var s Student
	if err := row.Scan(&s.ID, &s.Name, &s.StudentRef, &s.Email, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	ids, err := r.courseIDs(ctx, r.db, s.ID)
	if err != nil {
		return nil, err
	}
	s.CourseIDs = ids
	return &s, nil
}

// List returns all students with enrollments, newest first.
func (r *Repository) List(ctx context.Context) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, student_ref, email, created_at FROM students ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Student
	index := map[string]int{}
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.Name, &s.StudentRef, &s.Email, &s.CreatedAt); err != nil {
			return nil, err
		}
		index[s.ID] = len(res)
		res = append(res, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	enr, err := r.db.QueryContext(ctx, `SELECT student_id, course_id FROM enrollments`)
	if err != nil {
		return nil, err
	}
	defer enr.Close()
	for enr.Next() {
		var studentID, courseID string
		if err := enr.Scan(&studentID, &courseID); err != nil {
			return nil, err
		}
		if i, ok := index[studentID]; ok {
			res[i].CourseIDs = append(res[i].CourseIDs, courseID)
		}
	}
	return res, enr.Err()
}

// Search finds a single student by external student id or email, nil when absent.
func (r *Repository) Search(ctx context.Context, studentRef, email string) (*Student, error) {
	query := `SELECT id, name, student_ref, email, created_at FROM students WHERE `
	var row *sql.Row
	switch {
	case studentRef != "" && email != "":
		row = r.db.QueryRowContext(ctx, query+`student_ref = $1 AND email = $2`, studentRef, email)
	case studentRef != "":
		row = r.db.QueryRowContext(ctx, query+`student_ref = $1`, studentRef)
	case email != "":
		row = r.db.QueryRowContext(ctx, query+`email = $1`, email)
	default:
		return nil, errors.New("studentId or email required")
	}
	var s Student
	if err := row.Scan(&s.ID, &s.Name, &s.StudentRef, &s.Email, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	ids, err := r.courseIDs(ctx, r.db, s.ID)
	if err != nil {
		return nil, err
	}
	s.CourseIDs = ids
	return &s, nil
}

// Update rewrites name, email and the enrollment set in one transaction.
func (r *Repository) Update(ctx context.Context, s *Student) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE students SET name = $2, email = $3 WHERE id = $1
	`, s.ID, s.Name, s.Email)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM enrollments WHERE student_id = $1`, s.ID); err != nil {
		return err
	}
	for _, courseID := range s.CourseIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO enrollments (student_id, course_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, s.ID, courseID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Delete removes a student along with their attendance events and enrollment
// links. Courses and other students are untouched.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_events WHERE student_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM enrollments WHERE student_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}
