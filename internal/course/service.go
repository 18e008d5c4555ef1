package course

import (
	"context"
	"errors"
)

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, c *Course) error
	Get(ctx context.Context, id string) (*Course, error)
	List(ctx context.Context) ([]Course, error)
	Delete(ctx context.Context, id string) error
}

// Service coordinates course management.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create validates and persists a new course.
func (s *Service) Create(ctx context.Context, name, instructor, schedule, description string) (*Course, error) {
	if name == "" {
		return nil, errors.New("course name required")
	}
	if instructor == "" {
		return nil, errors.New("instructor required")
	}
	c := &Course{Name: name, Instructor: instructor, Schedule: schedule, Description: description}
	if err := s.store.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns a course or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Course, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// List returns all courses.
func (s *Service) List(ctx context.Context) ([]Course, error) {
	return s.store.List(ctx)
}

// Delete removes a course. The store cascades: attendance events go with it
// and the course is unlinked from every student's enrollment set.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
