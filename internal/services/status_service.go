package services

import (
	"context"
	"errors"

	"github.com/anonto42/nano-feed/backend/internal/apperror"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
)

// StatusService reads and writes the free-text status of a user.
type StatusService struct {
	users repositories.UserRepository
}

func NewStatusService(users repositories.UserRepository) *StatusService {
	return &StatusService{users: users}
}

func (s *StatusService) GetStatus(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", apperror.New(apperror.NotFound, "User not found!")
		}
		return "", apperror.Wrap(apperror.Internal, "Could not fetch status.", err)
	}
	return user.Status, nil
}

func (s *StatusService) SetStatus(ctx context.Context, userID, status string) (string, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", apperror.New(apperror.NotFound, "User does not exist!")
		}
		return "", apperror.Wrap(apperror.Internal, "Could not fetch user.", err)
	}

	user.Status = status
	if err := s.users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", apperror.New(apperror.NotFound, "User does not exist!")
		}
		return "", apperror.Wrap(apperror.Internal, "Could not save Status!", err)
	}
	return user.Status, nil
}
