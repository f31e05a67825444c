package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yukikurage/taskboard-api/internal/database"
	"github.com/yukikurage/taskboard-api/internal/models"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		query = query.Preload(p, database.UserSummary)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

func (r *GormTaskRepository) filtered(ctx context.Context, filter TaskFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Task{}).Scopes(database.VisibleTasks(filter.Visibility))

	if filter.DateFrom != nil {
		query = query.Where("tasks.date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("tasks.date < ?", *filter.DateTo)
	}
	if filter.Category != "" {
		query = query.Where("tasks.category = ?", filter.Category)
	}
	if filter.AssignedToID != nil {
		query = query.Where("tasks.assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.Completed != nil {
		query = query.Where("tasks.completed = ?", *filter.Completed)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("tasks.created_at >= ?", *filter.CreatedFrom)
	}

	return query
}

// List retrieves tasks matching the filter
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	tasks := []models.Task{}
	query := r.filtered(ctx, filter)

	if filter.SortByDate {
		query = query.Order("tasks.date ASC").Order("tasks.id ASC")
	} else {
		query = query.Order("tasks.created_at DESC").Order("tasks.id DESC")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	err := query.
		Preload("CreatedBy", database.UserSummary).
		Preload("AssignedTo", database.UserSummary).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// Count counts tasks matching the filter
func (r *GormTaskRepository) Count(ctx context.Context, filter TaskFilter) (int64, error) {
	var total int64
	err := r.filtered(ctx, filter).Count(&total).Error
	return total, err
}

// Updates writes only the given columns of a task
func (r *GormTaskRepository) Updates(ctx context.Context, id uint64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Task{ID: id}).Updates(fields).Error
}

// Delete permanently removes a task
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) error {
	result := r.db.WithContext(ctx).Delete(&models.Task{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

const completedSum = "COALESCE(SUM(CASE WHEN tasks.completed THEN 1 ELSE 0 END), 0)"

// Stats returns total and completed counts for tasks matching the filter
func (r *GormTaskRepository) Stats(ctx context.Context, filter TaskFilter) (TaskStats, error) {
	var stats TaskStats
	err := r.filtered(ctx, filter).
		Select("COUNT(*) AS total, " + completedSum + " AS completed").
		Scan(&stats).Error
	return stats, err
}

// CategoryStats returns per-category counts ordered by category
func (r *GormTaskRepository) CategoryStats(ctx context.Context, filter TaskFilter) ([]CategoryStats, error) {
	stats := []CategoryStats{}
	err := r.filtered(ctx, filter).
		Select("tasks.category AS category, COUNT(*) AS total, " + completedSum + " AS completed").
		Group("tasks.category").
		Order("tasks.category ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ProgressSamples returns the creation time and completion state of matching tasks
func (r *GormTaskRepository) ProgressSamples(ctx context.Context, filter TaskFilter) ([]ProgressSample, error) {
	samples := []ProgressSample{}
	err := r.filtered(ctx, filter).
		Select("tasks.created_at", "tasks.completed").
		Order("tasks.created_at ASC").
		Scan(&samples).Error
	if err != nil {
		return nil, err
	}
	return samples, nil
}
