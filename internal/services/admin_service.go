package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/taskboard-api/internal/constants"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/policy"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"github.com/yukikurage/taskboard-api/internal/utils"
)

// ConnectionRegistry is notified when a user's standing changes so open
// event streams follow it.
type ConnectionRegistry interface {
	SetRole(userID uint64, role models.Role)
	DisconnectUser(userID uint64)
}

// AdminService handles user administration
type AdminService struct {
	userRepo     repository.UserRepository
	activityRepo repository.ActivityRepository
	activity     activityRecorder
	connections  ConnectionRegistry
}

// NewAdminService creates a new AdminService. connections may be nil.
func NewAdminService(userRepo repository.UserRepository, activityRepo repository.ActivityRepository, connections ConnectionRegistry, log *zap.Logger) *AdminService {
	return &AdminService{
		userRepo:     userRepo,
		activityRepo: activityRepo,
		activity:     activityRecorder{repo: activityRepo, log: log},
		connections:  connections,
	}
}

// ListUsersInput represents filters for listing users
type ListUsersInput struct {
	Search string
	Role   string
	Page   utils.Page
}

// ListUsers returns a page of users
func (s *AdminService) ListUsers(ctx context.Context, actor models.Actor, input ListUsersInput) ([]models.User, int64, error) {
	if !policy.CanAdminister(actor) {
		return nil, 0, ErrAdminRequired
	}

	filter := repository.UserFilter{
		Search: input.Search,
		Page:   input.Page.Normalize(),
	}
	if input.Role != "" {
		role, err := models.ParseRole(input.Role)
		if err != nil {
			return nil, 0, ErrInvalidRole
		}
		filter.Role = &role
	}

	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (s *AdminService) loadTarget(ctx context.Context, actor models.Actor, userID uint64) (*models.User, error) {
	if !policy.CanAdminister(actor) {
		return nil, ErrAdminRequired
	}
	if actor.ID == userID {
		return nil, ErrSelfAdministration
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ChangeRole sets the role of another user and records it
func (s *AdminService) ChangeRole(ctx context.Context, actor models.Actor, userID uint64, rawRole, ip string) (*models.User, error) {
	user, err := s.loadTarget(ctx, actor, userID)
	if err != nil {
		return nil, err
	}

	role, err := models.ParseRole(rawRole)
	if err != nil {
		return nil, ErrInvalidRole
	}

	previous := user.Role
	user.Role = role
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	if s.connections != nil {
		s.connections.SetRole(user.ID, role)
	}
	s.activity.record(ctx, actor, &user.ID,
		fmt.Sprintf("Changed role of %s from %s to %s", user.Username, previous, role), ip,
		map[string]any{"userId": user.ID, "from": previous, "to": role},
	)
	return user, nil
}

// DeleteUser removes another user together with the tasks they created
func (s *AdminService) DeleteUser(ctx context.Context, actor models.Actor, userID uint64, ip string) error {
	user, err := s.loadTarget(ctx, actor, userID)
	if err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if s.connections != nil {
		s.connections.DisconnectUser(user.ID)
	}
	s.activity.record(ctx, actor, &user.ID,
		fmt.Sprintf("Deleted user %s", user.Username), ip,
		map[string]any{"userId": user.ID, "email": user.Email},
	)
	return nil
}

// ListActivity returns the latest audit entries involving userID
func (s *AdminService) ListActivity(ctx context.Context, actor models.Actor, userID uint64) ([]models.ActivityLog, error) {
	if !policy.CanAdminister(actor) {
		return nil, ErrAdminRequired
	}

	entries, err := s.activityRepo.ListByUser(ctx, userID, constants.ActivityLogListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return entries, nil
}
