package models

import (
	"errors"
	"time"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

var ErrInvalidPriority = errors.New("priority must be one of: Low, Medium, High")

// ParsePriority validates s, returning Medium for an empty value.
func ParsePriority(s string) (TaskPriority, error) {
	switch p := TaskPriority(s); p {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	default:
		return "", ErrInvalidPriority
	}
}

const (
	MinProgress = 0
	MaxProgress = 100
)

type Task struct {
	ID           uint64       `gorm:"primarykey" json:"id"`
	Title        string       `gorm:"type:varchar(255);not null" json:"title"`
	Description  string       `gorm:"type:text" json:"description"`
	Category     string       `gorm:"type:varchar(100);not null;default:'General'" json:"category"`
	Priority     TaskPriority `gorm:"type:varchar(10);not null;default:'Medium'" json:"priority"`
	Date         time.Time    `gorm:"not null" json:"date"`
	Time         string       `gorm:"type:varchar(20)" json:"time"`
	Progress     int          `gorm:"not null;default:0" json:"progress"`
	Completed    bool         `gorm:"not null;default:false" json:"completed"`
	CreatedByID  uint64       `gorm:"not null" json:"created_by_id"`
	AssignedToID *uint64      `json:"assigned_to_id"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`

	// Relations
	CreatedBy  User  `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	AssignedTo *User `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
}

// IsAssignedTo reports whether userID is the task's assignee.
func (t *Task) IsAssignedTo(userID uint64) bool {
	return t.AssignedToID != nil && *t.AssignedToID == userID
}

// Participants returns the creator and assignee ids, without duplicates.
func (t *Task) Participants() []uint64 {
	ids := []uint64{t.CreatedByID}
	if t.AssignedToID != nil && *t.AssignedToID != t.CreatedByID {
		ids = append(ids, *t.AssignedToID)
	}
	return ids
}
