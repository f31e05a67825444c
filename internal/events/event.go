// Package events fans task lifecycle notifications out to connected clients.
//
// Delivery is at-most-once: an event is a hint to refetch, never the source
// of truth. Clients that miss events resynchronize through the task list.
package events

import (
	"encoding/json"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type Type string

const (
	TypeTaskCreated Type = "newTaskAssigned"
	TypeTaskUpdated Type = "taskUpdated"
	TypeTaskDeleted Type = "taskDeleted"
)

// Audience selects the connections an event is delivered to.
type Audience struct {
	UserIDs []uint64 `json:"userIds"`
	Admins  bool     `json:"admins"`
}

// Includes reports whether a connection of userID with the given admin flag
// is part of the audience.
func (a Audience) Includes(userID uint64, admin bool) bool {
	if admin && a.Admins {
		return true
	}
	for _, id := range a.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type Event struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	TaskID     uint64          `json:"taskId"`
	Task       json.RawMessage `json:"task,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`

	Audience Audience `json:"-"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

func newID(at time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), entropy).String()
}

// New builds an event with a fresh sortable id.
func New(typ Type, taskID uint64, task json.RawMessage, audience Audience) Event {
	now := time.Now().UTC()
	return Event{
		ID:         newID(now),
		Type:       typ,
		TaskID:     taskID,
		Task:       task,
		OccurredAt: now,
		Audience:   audience,
	}
}
