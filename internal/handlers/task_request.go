package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/yukikurage/taskboard-api/internal/services"
)

var errInvalidAssignee = errors.New("assignedTo must be a user id or null")

// taskRequest is the create body. project is accepted as an alias of category.
type taskRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Project     string          `json:"project"`
	Priority    string          `json:"priority"`
	Date        string          `json:"date"`
	Time        string          `json:"time"`
	Progress    *int            `json:"progress"`
	Completed   bool            `json:"completed"`
	AssignedTo  json.RawMessage `json:"assignedTo"`
}

func (r taskRequest) toInput() (services.CreateTaskInput, error) {
	assignee, err := parseAssignee(r.AssignedTo)
	if err != nil {
		return services.CreateTaskInput{}, err
	}

	category := r.Category
	if strings.TrimSpace(category) == "" {
		category = r.Project
	}

	return services.CreateTaskInput{
		Title:        r.Title,
		Description:  r.Description,
		Category:     category,
		Priority:     r.Priority,
		Date:         r.Date,
		Time:         r.Time,
		Progress:     r.Progress,
		Completed:    r.Completed,
		AssignedToID: assignee,
	}, nil
}

// parseAssignee accepts a numeric id, a numeric string, or an object with an
// id. null and the empty string mean unassigned.
func parseAssignee(raw json.RawMessage) (*uint64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var id uint64
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, errInvalidAssignee
		}
		if s = strings.TrimSpace(s); s == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, errInvalidAssignee
		}
		id = parsed
	case '{':
		var ref struct {
			ID uint64 `json:"id"`
		}
		if err := json.Unmarshal(raw, &ref); err != nil {
			return nil, errInvalidAssignee
		}
		id = ref.ID
	default:
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, errInvalidAssignee
		}
	}

	if id == 0 {
		return nil, errInvalidAssignee
	}
	return &id, nil
}

type taskPatchRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Project     *string `json:"project"`
	Priority    *string `json:"priority"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	Progress    *int    `json:"progress"`
	Completed   *bool   `json:"completed"`
}

// parseTaskPatch reads a partial update. Only keys present in the body are
// changed, and "assignedTo": null clears the assignee.
func parseTaskPatch(body []byte) (services.UpdateTaskInput, error) {
	var req taskPatchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return services.UpdateTaskInput{}, err
	}
	var present map[string]json.RawMessage
	if err := json.Unmarshal(body, &present); err != nil {
		return services.UpdateTaskInput{}, err
	}

	category := req.Category
	if category == nil {
		category = req.Project
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    category,
		Priority:    req.Priority,
		Date:        req.Date,
		Time:        req.Time,
		Progress:    req.Progress,
		Completed:   req.Completed,
	}

	if raw, ok := present["assignedTo"]; ok {
		assignee, err := parseAssignee(raw)
		if err != nil {
			return services.UpdateTaskInput{}, err
		}
		input.AssignedToSet = true
		input.AssignedToID = assignee
	}

	return input, nil
}
