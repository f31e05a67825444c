package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/utils"
)

func TestToTaskDTO_PopulatedReferences(t *testing.T) {
	assignee := uint64(2)
	task := models.Task{
		ID:           7,
		Title:        "Review PR",
		Category:     "General",
		Priority:     models.PriorityHigh,
		Date:         time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC),
		CreatedByID:  1,
		AssignedToID: &assignee,
		CreatedBy:    models.User{ID: 1, Username: "admin", Role: models.RoleAdmin},
		AssignedTo:   &models.User{ID: 2, Username: "u2", Avatar: "https://example.com/u2.png", Role: models.RoleUser},
	}

	raw, err := json.Marshal(ToTaskDTO(task))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "2026-10-14", got["date"])
	assert.Equal(t, "High", got["priority"])
	assert.Equal(t, map[string]any{"id": 1.0, "username": "admin", "avatar": "", "role": "admin"}, got["createdBy"])
	assert.Equal(t, "u2", got["assignedTo"].(map[string]any)["username"])
	assert.NotContains(t, got, "email")
}

func TestToTaskDTO_UnloadedReferences(t *testing.T) {
	assignee := uint64(5)
	dto := ToTaskDTO(models.Task{ID: 1, CreatedByID: 3, AssignedToID: &assignee})
	assert.Equal(t, uint64(3), dto.CreatedBy.ID)
	require.NotNil(t, dto.AssignedTo)
	assert.Equal(t, uint64(5), dto.AssignedTo.ID)

	unassigned := ToTaskDTO(models.Task{ID: 2, CreatedByID: 3})
	assert.Nil(t, unassigned.AssignedTo)
}

func TestNewUserListResponse_Pages(t *testing.T) {
	first := utils.Page{Number: 1, Size: 10}
	assert.Equal(t, 3, NewUserListResponse(nil, 21, first).Pages)
	assert.Equal(t, 2, NewUserListResponse(nil, 20, first).Pages)
	assert.Equal(t, 0, NewUserListResponse(nil, 0, first).Pages)
	assert.Equal(t, 3, NewUserListResponse(nil, 21, utils.Page{Number: 3, Size: 10}).Page)
}
