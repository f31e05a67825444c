package dto

import (
	"time"

	"github.com/yukikurage/taskboard-api/internal/constants"
	"github.com/yukikurage/taskboard-api/internal/models"
)

// UserSummaryDTO is the minimal projection of a related user
type UserSummaryDTO struct {
	ID       uint64      `json:"id"`
	Username string      `json:"username"`
	Avatar   string      `json:"avatar"`
	Role     models.Role `json:"role"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          uint64              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	Priority    models.TaskPriority `json:"priority"`
	Date        string              `json:"date"`
	Time        string              `json:"time"`
	Progress    int                 `json:"progress"`
	Completed   bool                `json:"completed"`
	CreatedBy   *UserSummaryDTO     `json:"createdBy"`
	AssignedTo  *UserSummaryDTO     `json:"assignedTo"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// ToUserSummaryDTO converts a User model to UserSummaryDTO
func ToUserSummaryDTO(user models.User) UserSummaryDTO {
	return UserSummaryDTO{
		ID:       user.ID,
		Username: user.Username,
		Avatar:   user.Avatar,
		Role:     user.Role,
	}
}

// ToTaskDTO converts a Task model to TaskDTO. A creator that was not
// preloaded is reported by id only.
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Category:    task.Category,
		Priority:    task.Priority,
		Date:        task.Date.UTC().Format(constants.DateLayout),
		Time:        task.Time,
		Progress:    task.Progress,
		Completed:   task.Completed,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	creator := UserSummaryDTO{ID: task.CreatedByID}
	if task.CreatedBy.ID != 0 {
		creator = ToUserSummaryDTO(task.CreatedBy)
	}
	dto.CreatedBy = &creator

	if task.AssignedTo != nil && task.AssignedTo.ID != 0 {
		assignee := ToUserSummaryDTO(*task.AssignedTo)
		dto.AssignedTo = &assignee
	} else if task.AssignedToID != nil {
		dto.AssignedTo = &UserSummaryDTO{ID: *task.AssignedToID}
	}

	return dto
}

// ToTaskDTOs converts a slice of Task models
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	result := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		result[i] = ToTaskDTO(task)
	}
	return result
}
