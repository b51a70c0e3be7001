// Package services contains the domain services between the HTTP handlers and
// the store. Handlers decode and validate; services apply domain rules and
// talk to the store and providers.
package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/deskhub/deskhub/internal/model"
	"github.com/deskhub/deskhub/internal/store"
)

// UserService handles user-related operations.
type UserService struct {
	store store.Store
}

func NewUserService(s store.Store) *UserService { return &UserService{store: s} }

func (s *UserService) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	if u.UserID == "" {
		u.UserID = uuid.New().String()
	}
	return s.store.Users().Create(ctx, u)
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.store.Users().Get(ctx, userID)
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.store.Users().GetByEmail(ctx, email)
}
