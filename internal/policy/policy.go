// Package policy decides which tasks an actor may see and change. It performs
// no I/O; callers load the task and act on the decision.
package policy

import "github.com/yukikurage/taskboard-api/internal/models"

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }
func deny(reason string) Decision  { return Decision{Allowed: false, Reason: reason} }

// Authorize evaluates action by actor against task. task may be nil only for
// ActionCreate.
func Authorize(actor models.Actor, action Action, task *models.Task) Decision {
	if !actor.Authenticated() {
		return deny("unauthenticated")
	}

	switch action {
	case ActionCreate:
		return allow("authenticated")
	case ActionRead, ActionUpdate, ActionDelete:
		if task == nil {
			return deny("no task")
		}
		switch {
		case actor.IsAdmin():
			return allow("admin")
		case task.CreatedByID == actor.ID:
			return allow("creator")
		case task.IsAssignedTo(actor.ID):
			return allow("assignee")
		default:
			return deny("not a participant")
		}
	default:
		return deny("unknown action")
	}
}

// ListFilter restricts task queries to what an actor may read.
type ListFilter struct {
	// Unrestricted is set for admins.
	Unrestricted bool
	// ParticipantID limits results to tasks created by or assigned to this user.
	ParticipantID uint64
}

// ListFilterFor returns the visibility filter for actor. Unauthenticated
// actors get a filter that matches no task.
func ListFilterFor(actor models.Actor) ListFilter {
	if actor.Authenticated() && actor.IsAdmin() {
		return ListFilter{Unrestricted: true}
	}
	if !actor.Authenticated() {
		return ListFilter{}
	}
	return ListFilter{ParticipantID: actor.ID}
}

// Matches reports whether task passes the filter.
func (f ListFilter) Matches(task *models.Task) bool {
	if f.Unrestricted {
		return true
	}
	if f.ParticipantID == 0 {
		return false
	}
	return task.CreatedByID == f.ParticipantID || task.IsAssignedTo(f.ParticipantID)
}

// CanAdminister reports whether actor may use the admin-only surface.
func CanAdminister(actor models.Actor) bool {
	return actor.Authenticated() && actor.IsAdmin()
}
