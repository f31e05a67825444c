package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/yukikurage/taskboard-api/internal/database"
	"github.com/yukikurage/taskboard-api/internal/models"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// CreateWithBootstrapRole creates a user, making the first account ever an admin.
func (r *GormUserRepository) CreateWithBootstrapRole(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.User{}).Count(&existing).Error; err != nil {
			return err
		}

		if existing == 0 {
			user.Role = models.RoleAdmin
		} else if user.Role == "" {
			user.Role = models.RoleUser
		}

		return tx.Create(user).Error
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByExternalIdentityID finds a user by identity provider subject
func (r *GormUserRepository) FindByExternalIdentityID(ctx context.Context, subject string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("external_identity_id = ?", subject).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Save persists every field of a loaded user
func (r *GormUserRepository) Save(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit("CreatedTasks", "AssignedTasks").Save(user).Error
}

// List retrieves users with filtering and pagination, newest first
func (r *GormUserRepository) List(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	users := []models.User{}
	query := r.db.WithContext(ctx).Model(&models.User{})

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("(LOWER(users.username) LIKE ? OR LOWER(users.email) LIKE ?)", pattern, pattern)
	}
	if filter.Role != nil {
		query = query.Where("users.role = ?", *filter.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("users.created_at DESC").Order("users.id DESC")
	if filter.Page.Size > 0 {
		listQuery = listQuery.Scopes(database.Paginate(filter.Page))
	}

	if err := listQuery.Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// ListDirectory lists every user ordered by username
func (r *GormUserRepository) ListDirectory(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := r.db.WithContext(ctx).
		Select("id", "username", "email", "avatar").
		Order("username ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Delete removes a user, the tasks they created, and their assignments
func (r *GormUserRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("created_by_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Task{}).
			Where("assigned_to_id = ?", id).
			Update("assigned_to_id", nil).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
