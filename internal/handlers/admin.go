package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/taskboard-api/internal/constants"
	"github.com/yukikurage/taskboard-api/internal/dto"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/services"
	"github.com/yukikurage/taskboard-api/internal/utils"
)

// AdminHandler serves the admin-only user and task management routes.
type AdminHandler struct {
	adminService *services.AdminService
	taskService  *services.TaskService
	log          *zap.Logger
}

func NewAdminHandler(adminService *services.AdminService, taskService *services.TaskService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		taskService:  taskService,
		log:          log,
	}
}

// ListUsers returns a page of users filtered by search and role
func (h *AdminHandler) ListUsers(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	page := utils.ParsePage(c.Request.URL.Query())

	users, total, err := h.adminService.ListUsers(c.Request.Context(), actor, services.ListUsersInput{
		Search: c.Query("search"),
		Role:   c.Query("role"),
		Page:   page,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserListResponse(users, total, page))
}

// ChangeRole sets the role of another user
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type ChangeRoleRequest struct {
		Role string `json:"role" binding:"required"`
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "role is required")
		return
	}

	user, err := h.adminService.ChangeRole(c.Request.Context(), actor, userID, req.Role, c.ClientIP())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// DeleteUser removes another user together with the tasks they created
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.adminService.DeleteUser(c.Request.Context(), actor, userID, c.ClientIP()); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListActivity returns the latest audit entries involving a user
func (h *AdminHandler) ListActivity(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	entries, err := h.adminService.ListActivity(c.Request.Context(), actor, userID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToActivityDTOs(entries))
}

// ListTasks returns every task, optionally filtered by completion
func (h *AdminHandler) ListTasks(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var completed *bool
	if raw := c.Query("completed"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			apierrors.BadRequest(c, "completed must be true or false")
			return
		}
		completed = &value
	}

	limit := constants.AdminTaskListLimit
	if raw := c.Query("limit"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 1 {
			apierrors.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = value
	}

	list, err := h.taskService.AdminListTasks(c.Request.Context(), actor, completed, limit)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": list.Count,
		"tasks": dto.ToTaskDTOs(list.Tasks),
	})
}

// CreateTask creates a task on behalf of an admin, usually assigned to someone
func (h *AdminHandler) CreateTask(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	input, err := req.toInput()
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.AdminCreateTask(c.Request.Context(), actor, input, c.ClientIP())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}
