package service

import (
	"context"

	"aidlink/pkg/types"

	"github.com/sirupsen/logrus"
)

type UserService struct {
	users  UserStore
	logger *logrus.Logger
}

func NewUserService(users UserStore, logger *logrus.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

func (s *UserService) User(ctx context.Context, userID string) (*types.User, error) {
	return s.users.User(ctx, userID)
}

func (s *UserService) Users(ctx context.Context) ([]*types.User, error) {
	return s.users.Users(ctx)
}

func (s *UserService) UpdateUser(ctx context.Context, userID string, user *types.User) (*types.User, error) {
	switch {
	case user.Name == "":
		return nil, types.NewValidationError("user name is required")
	case user.Email == "":
		return nil, types.NewValidationError("user email is required")
	case !user.Role.Valid():
		return nil, types.NewValidationError("unknown role %q", user.Role)
	}

	if err := s.users.UpdateUser(ctx, userID, user); err != nil {
		return nil, err
	}

	s.logger.WithField("user_id", userID).Info("user updated")

	return s.users.User(ctx, userID)
}
