// Package users registers accounts and checks their credentials.
package users

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dharsanguruparan/filesmanager/internal/ident"
	"github.com/dharsanguruparan/filesmanager/internal/model"
	"github.com/dharsanguruparan/filesmanager/internal/queue"
	"github.com/dharsanguruparan/filesmanager/internal/repository"
)

var (
	ErrMissingEmail    = errors.New("Missing email")
	ErrMissingPassword = errors.New("Missing password")
	ErrAlreadyExists   = errors.New("Already exist")
	ErrUnauthorized    = errors.New("Unauthorized")
	ErrNotFound        = errors.New("Not found")
)

// Store persists accounts.
type Store interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// WelcomeQueue hands new accounts to the notification worker.
type WelcomeQueue interface {
	EnqueueWelcome(ctx context.Context, payload queue.WelcomePayload) error
}

// Service implements registration and authentication.
type Service struct {
	store   Store
	welcome WelcomeQueue
	logger  *zap.Logger
	cost    int
}

// NewService constructs a Service hashing passwords with bcrypt.DefaultCost.
func NewService(store Store, welcome WelcomeQueue, logger *zap.Logger) *Service {
	return &Service{store: store, welcome: welcome, logger: logger, cost: bcrypt.DefaultCost}
}

// Register creates an account and schedules its welcome email.
func (s *Service) Register(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" {
		return nil, ErrMissingEmail
	}
	if password == "" {
		return nil, ErrMissingPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{Email: email, PasswordHash: string(hash)}
	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	if err := s.welcome.EnqueueWelcome(ctx, queue.WelcomePayload{UserID: u.ID}); err != nil {
		s.logger.Error("enqueue welcome failed", zap.String("user_id", u.ID), zap.Error(err))
	}
	return u, nil
}

// Authenticate returns the user owning email if password matches.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, ErrUnauthorized
	}
	u, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrUnauthorized
	}
	return u, nil
}

// Get returns the user with the given id.
func (s *Service) Get(ctx context.Context, id string) (*model.User, error) {
	if !ident.Valid(id) {
		return nil, ErrNotFound
	}
	u, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
