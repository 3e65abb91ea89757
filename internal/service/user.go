// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/devops-challenge/userapi/internal/metrics"
	"github.com/devops-challenge/userapi/internal/model"
	"github.com/devops-challenge/userapi/internal/pagination"
	"github.com/devops-challenge/userapi/internal/repository"
)

// Service errors.
var (
	ErrEmailExists   = errors.New("email already exists")
	ErrInvalidWindow = errors.New("invalid pagination window")
)

// ConflictError is returned when the email is already taken.
// Detail carries the database message, e.g. `Key (email)=(bob@email.com) already exists.`
type ConflictError struct {
	Detail string
	Err    error
}

func (e *ConflictError) Error() string {
	if e.Detail != "" {
		return ErrEmailExists.Error() + ": " + e.Detail
	}
	return ErrEmailExists.Error()
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// Is matches ErrEmailExists.
func (e *ConflictError) Is(target error) bool {
	return target == ErrEmailExists
}

// UserQueries are the statements available inside a transaction.
type UserQueries interface {
	ListUsers(ctx context.Context, offset, limit int) ([]model.User, error)
	CreateUser(ctx context.Context, in model.NewUser) (*model.User, error)
}

// Store runs fn inside one transaction. It commits when fn returns nil and
// rolls back otherwise.
type Store interface {
	WithinTx(ctx context.Context, fn func(q UserQueries) error) error
}

// RepositoryStore adapts *repository.Repository to Store.
type RepositoryStore struct {
	Repo *repository.Repository
}

// WithinTx implements Store.
func (s RepositoryStore) WithinTx(ctx context.Context, fn func(q UserQueries) error) error {
	return s.Repo.InTx(ctx, func(q *repository.Queries) error {
		return fn(q)
	})
}

// UserService handles user business logic.
type UserService struct {
	store   Store
	metrics metrics.Recorder
}

// NewUserService creates a new UserService.
func NewUserService(store Store, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		store:   store,
		metrics: recorder,
	}
}

// ListUsers returns the users inside the window p. An empty slice means the
// window is past the end of the table.
func (s *UserService) ListUsers(ctx context.Context, p pagination.Params) ([]model.User, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}

	var users []model.User
	err := s.store.WithinTx(ctx, func(q UserQueries) error {
		var err error
		users, err = q.ListUsers(ctx, p.Offset, p.Limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObservePageSize(len(users))
	return users, nil
}

// CreateUser inserts a user. Input is expected to be validated by the caller.
// A duplicate email is returned as *ConflictError.
func (s *UserService) CreateUser(ctx context.Context, in model.NewUser) (*model.User, error) {
	var user *model.User
	err := s.store.WithinTx(ctx, func(q UserQueries) error {
		var err error
		user, err = q.CreateUser(ctx, in)
		return err
	})
	if err != nil {
		var conflict *repository.ConflictError
		if errors.As(err, &conflict) {
			s.metrics.IncUserConflict()
			return nil, &ConflictError{Detail: conflict.Detail, Err: err}
		}
		return nil, err
	}

	s.metrics.IncUserCreated()
	return user, nil
}
