package constants

// Context and session keys
const (
	ContextKeyUserID  = "user_id"
	ContextKeyActor   = "actor"
	ContextKeyTaskID  = "task_id"
	SessionCookieName = "task_session"
)

// Credential rules
const (
	MinPasswordLength = 8
	MinUsernameLength = 3
	MaxUsernameLength = 50
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Task defaults and listing limits
const (
	DefaultTaskCategory  = "General"
	DashboardTaskLimit   = 20
	AdminTaskListLimit   = 100
	ActivityLogListLimit = 200
	MaxAIGeneratedTasks  = 20
)

// DateLayout is the canonical calendar date format used by the API.
const DateLayout = "2006-01-02"
