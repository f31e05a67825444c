package server

import (
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/taskboard-api/internal/auth"
	"github.com/yukikurage/taskboard-api/internal/constants"
	"github.com/yukikurage/taskboard-api/internal/events"
	"github.com/yukikurage/taskboard-api/internal/handlers"
	"github.com/yukikurage/taskboard-api/internal/metrics"
	"github.com/yukikurage/taskboard-api/internal/middleware"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"github.com/yukikurage/taskboard-api/internal/services"
)

// Dependencies is everything the HTTP surface needs. main builds it from
// configuration, tests build it over an in-memory database.
type Dependencies struct {
	DB       *gorm.DB
	Log      *zap.Logger
	Sessions sessions.Store
	Tokens   *auth.TokenManager
	Users    repository.UserRepository
	Hub      *events.Hub

	AuthService   *services.AuthService
	TaskService   *services.TaskService
	ReportService *services.ReportService
	AdminService  *services.AdminService
	UserService   *services.UserService

	EventsKeepAlive time.Duration
	AuthRateLimit   float64
	AuthRateBurst   int
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Dependencies) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	metrics.Init()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(metrics.Middleware())
	r.Use(sessions.Sessions(constants.SessionCookieName, deps.Sessions))

	authenticator := middleware.NewAuthenticator(deps.Tokens, deps.Users, log)
	requireAuth := authenticator.RequireAuth()
	requireTaskID := middleware.RequireTaskID()
	authLimiter := middleware.NewRateLimiter(deps.AuthRateLimit, deps.AuthRateBurst)

	authHandler := handlers.NewAuthHandler(deps.AuthService, log)
	taskHandler := handlers.NewTaskHandler(deps.TaskService, log)
	reportHandler := handlers.NewReportHandler(deps.ReportService, log)
	adminHandler := handlers.NewAdminHandler(deps.AdminService, deps.TaskService, log)
	userHandler := handlers.NewUserHandler(deps.UserService, log)
	eventsHandler := handlers.NewEventsHandler(deps.Hub, deps.EventsKeepAlive, log)

	r.GET("/health", handlers.Health(deps.DB))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		// Auth routes (public)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/signup", authLimiter.Middleware(), authHandler.Signup)
			authGroup.POST("/login", authLimiter.Middleware(), authHandler.Login)
			authGroup.POST("/identity", authLimiter.Middleware(), authHandler.Identity)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		protected := api.Group("")
		protected.Use(requireAuth)
		{
			tasks := protected.Group("/tasks")
			{
				tasks.GET("", taskHandler.ListTasks)
				tasks.POST("", taskHandler.CreateTask)
				tasks.POST("/generate", taskHandler.GenerateTasks)
				tasks.GET("/:id", requireTaskID, taskHandler.GetTask)
				tasks.PUT("/:id", requireTaskID, taskHandler.UpdateTask)
				tasks.PATCH("/:id", requireTaskID, taskHandler.UpdateTask)
				tasks.DELETE("/:id", requireTaskID, taskHandler.DeleteTask)
			}

			protected.PUT("/progress/:id", requireTaskID, taskHandler.UpdateProgress)
			protected.GET("/progress", reportHandler.ByCategory)
			protected.GET("/calendar", taskHandler.Calendar)
			protected.GET("/dashboard", taskHandler.Dashboard)
			protected.GET("/weekly", reportHandler.Weekly)
			protected.GET("/monthly", reportHandler.Monthly)
			protected.GET("/overall", reportHandler.Overall)
			protected.GET("/user/:userId", reportHandler.PerUser)

			protected.GET("/users", userHandler.Directory)
			protected.GET("/profile", userHandler.GetProfile)
			protected.PUT("/profile", userHandler.UpdateProfile)

			protected.GET("/events", eventsHandler.Stream)

			admin := protected.Group("/admin")
			admin.Use(middleware.RequireRole(models.RoleAdmin))
			{
				admin.GET("/users", adminHandler.ListUsers)
				admin.PATCH("/users/:id/role", adminHandler.ChangeRole)
				admin.DELETE("/users/:id", adminHandler.DeleteUser)
				admin.GET("/users/:id/activity", adminHandler.ListActivity)
				admin.GET("/tasks", adminHandler.ListTasks)
				admin.POST("/tasks", adminHandler.CreateTask)
			}
		}
	}

	return r
}
