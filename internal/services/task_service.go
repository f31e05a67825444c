package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/taskboard-api/internal/constants"
	"github.com/yukikurage/taskboard-api/internal/dto"
	"github.com/yukikurage/taskboard-api/internal/events"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/policy"
	"github.com/yukikurage/taskboard-api/internal/repository"
)

// EventPublisher hands task events to the fanout channel.
type EventPublisher interface {
	Publish(ctx context.Context, evt events.Event) error
}

// TaskService handles task business logic
type TaskService struct {
	taskRepo  repository.TaskRepository
	userRepo  repository.UserRepository
	activity  activityRecorder
	publisher EventPublisher
	generator TaskGenerator
	log       *zap.Logger
}

// NewTaskService creates a new TaskService. generator may be nil when AI
// suggestions are not configured.
func NewTaskService(
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	activityRepo repository.ActivityRepository,
	publisher EventPublisher,
	generator TaskGenerator,
	log *zap.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		userRepo:  userRepo,
		activity:  activityRecorder{repo: activityRepo, log: log},
		publisher: publisher,
		generator: generator,
		log:       log,
	}
}

// ListTasksInput represents caller-supplied filters for listing tasks
type ListTasksInput struct {
	Date     string
	Category string
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title        string
	Description  string
	Category     string
	Priority     string
	Date         string
	Time         string
	Progress     *int
	Completed    bool
	AssignedToID *uint64
}

// UpdateTaskInput is a partial update; nil fields keep their stored value.
// AssignedToSet distinguishes clearing the assignee from leaving it alone.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Category      *string
	Priority      *string
	Date          *string
	Time          *string
	Progress      *int
	Completed     *bool
	AssignedToSet bool
	AssignedToID  *uint64
}

// Dashboard is the dashboard rollup over the actor's visible tasks
type Dashboard struct {
	Tasks          []models.Task
	TasksCount     int64
	CompletedTasks int64
}

// AdminTaskList is the admin view over every task
type AdminTaskList struct {
	Count int64
	Tasks []models.Task
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// start of that day in UTC.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(constants.DateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func dayRange(raw string) (*time.Time, *time.Time, error) {
	from, err := ParseDate(raw)
	if err != nil {
		return nil, nil, err
	}
	to := from.AddDate(0, 0, 1)
	return &from, &to, nil
}

func validProgress(p int) bool {
	return p >= models.MinProgress && p <= models.MaxProgress
}

// ListTasks returns the tasks visible to actor, newest first
func (s *TaskService) ListTasks(ctx context.Context, actor models.Actor, input ListTasksInput) ([]models.Task, error) {
	filter := repository.TaskFilter{
		Visibility: policy.ListFilterFor(actor),
		Category:   strings.TrimSpace(input.Category),
	}
	if input.Date != "" {
		from, to, err := dayRange(input.Date)
		if err != nil {
			return nil, err
		}
		filter.DateFrom, filter.DateTo = from, to
	}

	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Calendar returns visible tasks scheduled on date, or all visible tasks when
// date is empty, ordered by date
func (s *TaskService) Calendar(ctx context.Context, actor models.Actor, date string) ([]models.Task, error) {
	filter := repository.TaskFilter{
		Visibility: policy.ListFilterFor(actor),
		SortByDate: true,
	}
	if date != "" {
		from, to, err := dayRange(date)
		if err != nil {
			return nil, err
		}
		filter.DateFrom, filter.DateTo = from, to
	}

	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar tasks: %w", err)
	}
	return tasks, nil
}

// Dashboard returns the most recent visible tasks and counts over all of them
func (s *TaskService) Dashboard(ctx context.Context, actor models.Actor) (*Dashboard, error) {
	visibility := policy.ListFilterFor(actor)

	tasks, err := s.taskRepo.List(ctx, repository.TaskFilter{Visibility: visibility, Limit: constants.DashboardTaskLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to list dashboard tasks: %w", err)
	}

	stats, err := s.taskRepo.Stats(ctx, repository.TaskFilter{Visibility: visibility})
	if err != nil {
		return nil, fmt.Errorf("failed to count dashboard tasks: %w", err)
	}

	return &Dashboard{
		Tasks:          tasks,
		TasksCount:     stats.Total,
		CompletedTasks: stats.Completed,
	}, nil
}

// loadAuthorized loads a task and checks action against it. Missing tasks
// are reported as not found, inaccessible ones as forbidden.
func (s *TaskService) loadAuthorized(ctx context.Context, actor models.Actor, action policy.Action, taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if decision := policy.Authorize(actor, action, task); !decision.Allowed {
		return nil, ErrTaskAccessDenied
	}
	return task, nil
}

func (s *TaskService) reload(ctx context.Context, taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID, "CreatedBy", "AssignedTo")
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	return task, nil
}

// GetTask returns a single task the actor may read
func (s *TaskService) GetTask(ctx context.Context, actor models.Actor, taskID uint64) (*models.Task, error) {
	if _, err := s.loadAuthorized(ctx, actor, policy.ActionRead, taskID); err != nil {
		return nil, err
	}
	return s.reload(ctx, taskID)
}

func (s *TaskService) ensureAssignee(ctx context.Context, id *uint64) error {
	if id == nil {
		return nil
	}
	if _, err := s.userRepo.FindByID(ctx, *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssigneeNotFound
		}
		return fmt.Errorf("failed to find assignee: %w", err)
	}
	return nil
}

func (s *TaskService) buildTask(ctx context.Context, creatorID uint64, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(input.Date) == "" {
		return nil, ErrDateRequired
	}
	date, err := ParseDate(input.Date)
	if err != nil {
		return nil, err
	}
	priority, err := models.ParsePriority(strings.TrimSpace(input.Priority))
	if err != nil {
		return nil, ErrInvalidPriority
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = constants.DefaultTaskCategory
	}
	progress := models.MinProgress
	if input.Progress != nil {
		if !validProgress(*input.Progress) {
			return nil, ErrInvalidProgress
		}
		progress = *input.Progress
	}
	if err := s.ensureAssignee(ctx, input.AssignedToID); err != nil {
		return nil, err
	}

	return &models.Task{
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		Category:     category,
		Priority:     priority,
		Date:         date,
		Time:         strings.TrimSpace(input.Time),
		Progress:     progress,
		Completed:    input.Completed,
		CreatedByID:  creatorID,
		AssignedToID: input.AssignedToID,
	}, nil
}

// CreateTask creates a task owned by actor and announces it to its participants
func (s *TaskService) CreateTask(ctx context.Context, actor models.Actor, input CreateTaskInput) (*models.Task, error) {
	if decision := policy.Authorize(actor, policy.ActionCreate, nil); !decision.Allowed {
		return nil, ErrTaskAccessDenied
	}

	task, err := s.buildTask(ctx, actor.ID, input)
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	created, err := s.reload(ctx, task.ID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeTaskCreated, created, taskAudience(created))
	return created, nil
}

// AdminCreateTask creates a task on behalf of an admin and assigns it
func (s *TaskService) AdminCreateTask(ctx context.Context, actor models.Actor, input CreateTaskInput, ip string) (*models.Task, error) {
	if !policy.CanAdminister(actor) {
		return nil, ErrAdminRequired
	}

	created, err := s.CreateTask(ctx, actor, input)
	if err != nil {
		return nil, err
	}

	action := fmt.Sprintf("Created task '%s'", created.Title)
	if created.AssignedTo != nil {
		action = fmt.Sprintf("Assigned task '%s' to %s", created.Title, created.AssignedTo.Username)
	}
	s.activity.record(ctx, actor, created.AssignedToID, action, ip, map[string]any{"taskId": created.ID})

	return created, nil
}

// AdminListTasks lists every task, optionally filtered by completion state
func (s *TaskService) AdminListTasks(ctx context.Context, actor models.Actor, completed *bool, limit int) (*AdminTaskList, error) {
	if !policy.CanAdminister(actor) {
		return nil, ErrAdminRequired
	}
	if limit <= 0 {
		limit = constants.AdminTaskListLimit
	}

	filter := repository.TaskFilter{
		Visibility: policy.ListFilterFor(actor),
		Completed:  completed,
	}

	count, err := s.taskRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	filter.Limit = limit
	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return &AdminTaskList{Count: count, Tasks: tasks}, nil
}

func (s *TaskService) buildPatch(ctx context.Context, input UpdateTaskInput) (map[string]any, error) {
	fields := map[string]any{}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		fields["title"] = title
	}
	if input.Description != nil {
		fields["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			category = constants.DefaultTaskCategory
		}
		fields["category"] = category
	}
	if input.Priority != nil {
		priority, err := models.ParsePriority(strings.TrimSpace(*input.Priority))
		if err != nil {
			return nil, ErrInvalidPriority
		}
		fields["priority"] = priority
	}
	if input.Date != nil {
		date, err := ParseDate(*input.Date)
		if err != nil {
			return nil, err
		}
		fields["date"] = date
	}
	if input.Time != nil {
		fields["time"] = strings.TrimSpace(*input.Time)
	}
	if input.Progress != nil {
		if !validProgress(*input.Progress) {
			return nil, ErrInvalidProgress
		}
		fields["progress"] = *input.Progress
	}
	if input.Completed != nil {
		fields["completed"] = *input.Completed
	}
	if input.AssignedToSet {
		if err := s.ensureAssignee(ctx, input.AssignedToID); err != nil {
			return nil, err
		}
		fields["assigned_to_id"] = input.AssignedToID
	}

	return fields, nil
}

// UpdateTask applies a partial update to a task the actor may modify
func (s *TaskService) UpdateTask(ctx context.Context, actor models.Actor, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	current, err := s.loadAuthorized(ctx, actor, policy.ActionUpdate, taskID)
	if err != nil {
		return nil, err
	}

	fields, err := s.buildPatch(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.Updates(ctx, taskID, fields); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	updated, err := s.reload(ctx, taskID)
	if err != nil {
		return nil, err
	}

	audience := taskAudience(updated)
	if current.AssignedToID != nil && !updated.IsAssignedTo(*current.AssignedToID) {
		audience.UserIDs = append(audience.UserIDs, *current.AssignedToID)
	}
	s.publish(ctx, events.TypeTaskUpdated, updated, audience)
	return updated, nil
}

// UpdateProgress sets only the progress of a task the actor may modify
func (s *TaskService) UpdateProgress(ctx context.Context, actor models.Actor, taskID uint64, progress int) (*models.Task, error) {
	return s.UpdateTask(ctx, actor, taskID, UpdateTaskInput{Progress: &progress})
}

// DeleteTask permanently removes a task the actor may delete
func (s *TaskService) DeleteTask(ctx context.Context, actor models.Actor, taskID uint64, ip string) error {
	task, err := s.loadAuthorized(ctx, actor, policy.ActionDelete, taskID)
	if err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.activity.record(ctx, actor, task.AssignedToID, fmt.Sprintf("Deleted task '%s'", task.Title), ip, map[string]any{"taskId": task.ID})
	s.publish(ctx, events.TypeTaskDeleted, &models.Task{ID: task.ID}, taskAudience(task))
	return nil
}

// GenerateTasks suggests tasks extracted from text without persisting them
func (s *TaskService) GenerateTasks(ctx context.Context, actor models.Actor, text string) ([]GeneratedTask, error) {
	if !actor.Authenticated() {
		return nil, ErrTaskAccessDenied
	}
	if s.generator == nil {
		return nil, ErrAIServiceNotConfigured
	}

	generated, err := s.generator.GenerateTasksFromText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	suggestions := make([]GeneratedTask, 0, len(generated))
	for _, g := range generated {
		g.Title = strings.TrimSpace(g.Title)
		if g.Title == "" {
			continue
		}
		if strings.TrimSpace(g.Category) == "" {
			g.Category = constants.DefaultTaskCategory
		}
		if p, err := models.ParsePriority(strings.TrimSpace(g.Priority)); err == nil {
			g.Priority = string(p)
		} else {
			g.Priority = string(models.PriorityMedium)
		}
		if _, err := ParseDate(g.Date); err != nil {
			g.Date = ""
		}
		suggestions = append(suggestions, g)
		if len(suggestions) == constants.MaxAIGeneratedTasks {
			break
		}
	}

	if len(suggestions) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	return suggestions, nil
}

func taskAudience(task *models.Task) events.Audience {
	return events.Audience{UserIDs: task.Participants(), Admins: true}
}

// publish announces a committed mutation. Publish failures are logged; the
// task list stays the source of truth for clients that miss the event.
func (s *TaskService) publish(ctx context.Context, typ events.Type, task *models.Task, audience events.Audience) {
	if s.publisher == nil {
		return
	}

	var body json.RawMessage
	if typ != events.TypeTaskDeleted {
		raw, err := json.Marshal(dto.ToTaskDTO(*task))
		if err != nil {
			s.log.Warn("failed to encode task event", zap.Uint64("task_id", task.ID), zap.Error(err))
		} else {
			body = raw
		}
	}

	evt := events.New(typ, task.ID, body, audience)
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.Warn("failed to publish task event",
			zap.String("event_id", evt.ID),
			zap.String("type", string(typ)),
			zap.Uint64("task_id", task.ID),
			zap.Error(err),
		)
	}
}
