package dto

import (
	"encoding/json"
	"time"

	"github.com/yukikurage/taskboard-api/internal/models"
)

// ActivityDTO represents an audit entry in API responses
type ActivityDTO struct {
	ID           uint64          `json:"id"`
	ActingUserID uint64          `json:"actingUserId"`
	TargetUserID *uint64         `json:"targetUserId,omitempty"`
	Action       string          `json:"action"`
	Meta         json.RawMessage `json:"meta,omitempty"`
	IP           string          `json:"ip"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// ToActivityDTOs converts audit entries
func ToActivityDTOs(entries []models.ActivityLog) []ActivityDTO {
	result := make([]ActivityDTO, len(entries))
	for i, entry := range entries {
		result[i] = ActivityDTO{
			ID:           entry.ID,
			ActingUserID: entry.ActingUserID,
			TargetUserID: entry.TargetUserID,
			Action:       entry.Action,
			Meta:         json.RawMessage(entry.Meta),
			IP:           entry.IP,
			CreatedAt:    entry.CreatedAt,
		}
	}
	return result
}
