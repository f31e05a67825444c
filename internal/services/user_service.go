package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
)

// UserService handles self-service profile and directory reads
type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// UpdateProfileInput is a partial profile update; nil fields are unchanged
type UpdateProfileInput struct {
	Username *string
	Avatar   *string
	Password *string
}

// Profile returns the actor's own record
func (s *UserService) Profile(ctx context.Context, actor models.Actor) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateProfile changes the actor's username, avatar or password. Role is
// never writable here.
func (s *UserService) UpdateProfile(ctx context.Context, actor models.Actor, input UpdateProfileInput) (*models.User, error) {
	user, err := s.Profile(ctx, actor)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		username, err := validateUsername(*input.Username)
		if err != nil {
			return nil, err
		}
		user.Username = username
	}
	if input.Avatar != nil {
		user.Avatar = strings.TrimSpace(*input.Avatar)
	}
	if input.Password != nil {
		hashed, err := hashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = &hashed
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// Directory lists every user for assignment pickers
func (s *UserService) Directory(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.ListDirectory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
