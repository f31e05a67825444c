package repository

import (
	"context"
	"time"

	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/policy"
	"github.com/yukikurage/taskboard-api/internal/utils"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks matching the filter with creator and assignee preloaded
	List(ctx context.Context, filter TaskFilter) ([]models.Task, error)

	// Count counts tasks matching the filter
	Count(ctx context.Context, filter TaskFilter) (int64, error)

	// Updates writes only the given columns of a task
	Updates(ctx context.Context, id uint64, fields map[string]any) error

	// Delete permanently removes a task
	Delete(ctx context.Context, id uint64) error

	// Stats returns total and completed counts for tasks matching the filter
	Stats(ctx context.Context, filter TaskFilter) (TaskStats, error)

	// CategoryStats returns per-category counts for tasks matching the filter
	CategoryStats(ctx context.Context, filter TaskFilter) ([]CategoryStats, error)

	// ProgressSamples returns the creation time and completion state of matching tasks
	ProgressSamples(ctx context.Context, filter TaskFilter) ([]ProgressSample, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Visibility   policy.ListFilter
	DateFrom     *time.Time
	DateTo       *time.Time
	Category     string
	AssignedToID *uint64
	Completed    *bool
	CreatedFrom  *time.Time
	SortByDate   bool
	Limit        int
}

// TaskStats holds aggregate counts over a set of tasks
type TaskStats struct {
	Total     int64
	Completed int64
}

// CategoryStats holds aggregate counts for one category
type CategoryStats struct {
	Category  string
	Total     int64
	Completed int64
}

// ProgressSample is the minimal projection used for time-bucketed reports
type ProgressSample struct {
	CreatedAt time.Time
	Completed bool
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// CreateWithBootstrapRole creates a user, promoting them to admin when
	// the directory is empty, within a single transaction.
	CreateWithBootstrapRole(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by email, case-insensitively
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByExternalIdentityID finds a user by identity provider subject
	FindByExternalIdentityID(ctx context.Context, subject string) (*models.User, error)

	// Save persists every field of a loaded user
	Save(ctx context.Context, user *models.User) error

	// List retrieves users with filtering and pagination
	List(ctx context.Context, filter UserFilter) ([]models.User, int64, error)

	// ListDirectory lists every user ordered by username
	ListDirectory(ctx context.Context) ([]models.User, error)

	// Delete removes a user, the tasks they created, and their assignments
	Delete(ctx context.Context, id uint64) error
}

// UserFilter holds filtering options for listing users
type UserFilter struct {
	Search string
	Role   *models.Role
	// Page is left zero to list every match.
	Page utils.Page
}

// ActivityRepository defines the interface for the append-only audit trail
type ActivityRepository interface {
	// Create appends an entry
	Create(ctx context.Context, entry *models.ActivityLog) error

	// ListByUser lists the latest entries where the user acted or was the target
	ListByUser(ctx context.Context, userID uint64, limit int) ([]models.ActivityLog, error)
}
