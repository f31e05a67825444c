package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type index struct {
	table   string
	name    string
	columns string
}

// Indexes backing the visibility filter and the calendar/report queries.
var taskIndexes = []index{
	{"tasks", "idx_tasks_participants", "created_by_id, assigned_to_id"},
	{"tasks", "idx_tasks_assigned_to_id", "assigned_to_id"},
	{"tasks", "idx_tasks_date", "date"},
	{"tasks", "idx_tasks_created_at", "created_at"},
	{"tasks", "idx_tasks_category", "category"},
}

// AddIndexes creates the task indexes that are not present yet.
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	for _, idx := range taskIndexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			log.Debug("index already exists, skipping", zap.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("created index", zap.String("index", idx.name), zap.String("table", idx.table))
	}

	return nil
}
