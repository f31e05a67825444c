package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yukikurage/taskboard-api/internal/models"
)

// GormActivityRepository is a GORM implementation of ActivityRepository
type GormActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &GormActivityRepository{db: db}
}

// Create appends an entry
func (r *GormActivityRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByUser lists the latest entries where the user acted or was the target
func (r *GormActivityRepository) ListByUser(ctx context.Context, userID uint64, limit int) ([]models.ActivityLog, error) {
	entries := []models.ActivityLog{}
	query := r.db.WithContext(ctx).
		Where("acting_user_id = ? OR target_user_id = ?", userID, userID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
