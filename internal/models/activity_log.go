package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is an append-only audit entry for privileged actions.
type ActivityLog struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	ActingUserID uint64         `gorm:"not null;index" json:"acting_user_id"`
	TargetUserID *uint64        `gorm:"index" json:"target_user_id,omitempty"`
	Action       string         `gorm:"type:varchar(512);not null" json:"action"`
	Meta         datatypes.JSON `json:"meta"`
	IP           string         `gorm:"type:varchar(64)" json:"ip"`
	CreatedAt    time.Time      `json:"created_at"`
}
