package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yukikurage/taskboard-api/internal/dto"
	"github.com/yukikurage/taskboard-api/internal/models"
)

func TestUserHandler_Profile(t *testing.T) {
	env := setupTestEnv(t)
	handler := NewUserHandler(env.userService, zap.NewNop())
	user := env.createUser(t, "profile", models.RoleUser)

	r := env.router(user)
	r.GET("/api/profile", handler.GetProfile)
	r.PUT("/api/profile", handler.UpdateProfile)

	w := doJSON(t, r, http.MethodPut, "/api/profile", map[string]any{
		"username": "renamed",
		"avatar":   "https://example.com/a.png",
		"role":     "admin",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated := decode[dto.UserDTO](t, w)
	assert.Equal(t, "renamed", updated.Username)
	assert.Equal(t, "https://example.com/a.png", updated.Avatar)
	assert.Equal(t, models.RoleUser, updated.Role, "role is not writable through the profile")

	w = doJSON(t, r, http.MethodPut, "/api/profile", map[string]any{"password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "renamed", decode[dto.UserDTO](t, w).Username)
}

func TestUserHandler_Directory(t *testing.T) {
	env := setupTestEnv(t)
	handler := NewUserHandler(env.userService, zap.NewNop())
	zed := env.createUser(t, "zed", models.RoleUser)
	env.createUser(t, "amy", models.RoleAdmin)

	r := env.router(zed)
	r.GET("/api/users", handler.Directory)

	w := doJSON(t, r, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, w.Code)

	entries := decode[[]dto.DirectoryEntryDTO](t, w)
	require.Len(t, entries, 2)
	assert.Equal(t, "amy", entries[0].Username)
	assert.Equal(t, "zed", entries[1].Username)
	assert.NotContains(t, w.Body.String(), "role")
}
