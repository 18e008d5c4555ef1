package student

import (
	"context"
	"errors"
)

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, s *Student) error
	Get(ctx context.Context, id string) (*Student, error)
	List(ctx context.Context) ([]Student, error)
	Search(ctx context.Context, studentRef, email string) (*Student, error)
	Update(ctx context.Context, s *Student) error
	Delete(ctx context.Context, id string) error
}

// Service coordinates student management.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create validates and persists a new student.
func (s *Service) Create(ctx context.Context, name, studentRef, email string, courseIDs []string) (*Student, error) {
	if name == "" {
		return nil, errors.New("student name required")
	}
	if studentRef == "" {
		return nil, errors.New("student id required")
	}
	st := &Student{Name: name, StudentRef: studentRef, Email: email, CourseIDs: courseIDs}
	if st.CourseIDs == nil {
		st.CourseIDs = []string{}
	}
	if err := s.store.Insert(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Get returns a student or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Student, error) {
	st, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrNotFound
	}
	return st, nil
}

// List returns all students.
func (s *Service) List(ctx context.Context) ([]Student, error) {
	return s.store.List(ctx)
}

// Search finds a student by external student id or email; nil when no match.
func (s *Service) Search(ctx context.Context, studentRef, email string) (*Student, error) {
	return s.store.Search(ctx, studentRef, email)
}

// Update applies partial changes: empty fields keep their current value,
// a nil course list keeps the current enrollment set.
func (s *Service) Update(ctx context.Context, id, name, email string, courseIDs []string) (*Student, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		st.Name = name
	}
	if email != "" {
		st.Email = email
	}
	if courseIDs != nil {
		st.CourseIDs = courseIDs
	}
	if err := s.store.Update(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Delete removes a student. The store cascades their attendance events away.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
