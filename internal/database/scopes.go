package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/taskboard-api/internal/policy"
	"github.com/yukikurage/taskboard-api/internal/utils"
)

// Paginate limits a query to the rows of page.
func Paginate(page utils.Page) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(page.Offset()).Limit(page.Size)
	}
}

// VisibleTasks restricts a tasks query to the rows filter allows.
func VisibleTasks(filter policy.ListFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.Unrestricted {
			return db
		}
		if filter.ParticipantID == 0 {
			return db.Where("1 = 0")
		}
		return db.Where("(tasks.created_by_id = ? OR tasks.assigned_to_id = ?)", filter.ParticipantID, filter.ParticipantID)
	}
}

// UserSummary preloads only the public projection of a related user.
func UserSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username", "avatar", "role")
}
