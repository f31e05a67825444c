package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/taskboard-api/internal/auth"
	"github.com/yukikurage/taskboard-api/internal/events"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"github.com/yukikurage/taskboard-api/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) all() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

type fakeGenerator struct {
	tasks []GeneratedTask
	err   error
}

func (g *fakeGenerator) GenerateTasksFromText(context.Context, string) ([]GeneratedTask, error) {
	return g.tasks, g.err
}

type fakeRegistry struct {
	roles        map[uint64]models.Role
	disconnected []uint64
}

func (r *fakeRegistry) SetRole(userID uint64, role models.Role) { r.roles[userID] = role }
func (r *fakeRegistry) DisconnectUser(userID uint64)            { r.disconnected = append(r.disconnected, userID) }

// serviceSuite wires every service against an in-memory database.
type serviceSuite struct {
	suite.Suite
	ctx       context.Context
	db        *gorm.DB
	taskRepo  repository.TaskRepository
	userRepo  repository.UserRepository
	activity  repository.ActivityRepository
	publisher *recordingPublisher
	generator *fakeGenerator
	registry  *fakeRegistry
	tokens    *auth.TokenManager

	auth    *AuthService
	tasks   *TaskService
	reports *ReportService
	admin   *AdminService
	users   *UserService
}

func (s *serviceSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewTestDB(s.T())
	s.taskRepo = repository.NewTaskRepository(s.db)
	s.userRepo = repository.NewUserRepository(s.db)
	s.activity = repository.NewActivityRepository(s.db)
	s.publisher = &recordingPublisher{}
	s.generator = &fakeGenerator{}
	s.registry = &fakeRegistry{roles: map[uint64]models.Role{}}
	s.tokens = auth.NewTokenManager("test-secret", time.Hour)

	log := zap.NewNop()
	s.auth = NewAuthService(s.userRepo, s.tokens, auth.NewAssertionVerifier("broker-secret"))
	s.tasks = NewTaskService(s.taskRepo, s.userRepo, s.activity, s.publisher, s.generator, log)
	s.reports = NewReportService(s.taskRepo)
	s.admin = NewAdminService(s.userRepo, s.activity, s.registry, log)
	s.users = NewUserService(s.userRepo)
}

func (s *serviceSuite) createUser(name string) models.Actor {
	hash := "hashedpassword"
	user := &models.User{Username: name, Email: name + "@example.com", PasswordHash: &hash}
	s.Require().NoError(s.userRepo.CreateWithBootstrapRole(s.ctx, user))
	return user.Actor()
}

func (s *serviceSuite) createTask(actor models.Actor, title string, assignee *uint64) *models.Task {
	task, err := s.tasks.CreateTask(s.ctx, actor, CreateTaskInput{Title: title, Date: "2026-10-14", AssignedToID: assignee})
	s.Require().NoError(err)
	return task
}

func (s *serviceSuite) titles(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func (s *serviceSuite) activityCount() int64 {
	var n int64
	s.Require().NoError(s.db.Model(&models.ActivityLog{}).Count(&n).Error)
	return n
}

var errPublish = errors.New("relay unavailable")
