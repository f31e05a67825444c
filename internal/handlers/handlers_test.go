package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yukikurage/taskboard-api/internal/auth"
	"github.com/yukikurage/taskboard-api/internal/constants"
	"github.com/yukikurage/taskboard-api/internal/events"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"github.com/yukikurage/taskboard-api/internal/services"
	"github.com/yukikurage/taskboard-api/internal/testutil"
)

const testPassword = "supersecret"

type testEnv struct {
	db     *gorm.DB
	hub    *events.Hub
	tokens *auth.TokenManager

	authService   *services.AuthService
	taskService   *services.TaskService
	reportService *services.ReportService
	adminService  *services.AdminService
	userService   *services.UserService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	log := zap.NewNop()
	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	hub := events.NewHub(events.DefaultBuffer, log)
	tokens := auth.NewTokenManager("handler-test-secret", time.Hour)

	return &testEnv{
		db:            db,
		hub:           hub,
		tokens:        tokens,
		authService:   services.NewAuthService(userRepo, tokens, auth.NewAssertionVerifier("")),
		taskService:   services.NewTaskService(taskRepo, userRepo, activityRepo, hub, nil, log),
		reportService: services.NewReportService(taskRepo),
		adminService:  services.NewAdminService(userRepo, activityRepo, hub, log),
		userService:   services.NewUserService(userRepo),
	}
}

// router returns an engine with a cookie session store. When actor is set it
// is attached to every request the way RequireAuth would.
func (e *testEnv) router(actor *models.User) *gin.Engine {
	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	if actor != nil {
		r.Use(func(c *gin.Context) {
			c.Set(constants.ContextKeyUserID, actor.ID)
			c.Set(constants.ContextKeyActor, actor.Actor())
			c.Next()
		})
	}
	return r
}

func (e *testEnv) createUser(t *testing.T, username string, role models.Role) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	hash := string(hashed)

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: &hash,
		Role:         role,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createTask(t *testing.T, title string, creator *models.User, assignee *models.User) *models.Task {
	t.Helper()
	task := &models.Task{
		Title:       title,
		Category:    constants.DefaultTaskCategory,
		Priority:    models.PriorityMedium,
		Date:        time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC),
		CreatedByID: creator.ID,
	}
	if assignee != nil {
		task.AssignedToID = &assignee.ID
	}
	require.NoError(t, e.db.Omit("CreatedBy", "AssignedTo").Create(task).Error)
	return task
}

func doJSON(t *testing.T, r http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	switch p := payload.(type) {
	case nil:
		body = bytes.NewReader(nil)
	case string:
		body = bytes.NewReader([]byte(p))
	default:
		encoded, err := json.Marshal(p)
		require.NoError(t, err)
		body = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
