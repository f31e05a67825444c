package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yukikurage/taskboard-api/internal/dto"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/models"
)

func TestAuthHandler_Signup(t *testing.T) {
	env := setupTestEnv(t)
	handler := NewAuthHandler(env.authService, zap.NewNop())

	r := env.router(nil)
	r.POST("/api/auth/signup", handler.Signup)

	w := doJSON(t, r, http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "newuser",
		"email":    "NewUser@Example.com",
		"password": testPassword,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	response := decode[dto.AuthResponse](t, w)
	assert.NotEmpty(t, response.Token)
	assert.Equal(t, "newuser", response.User.Username)
	assert.Equal(t, "newuser@example.com", response.User.Email)
	assert.Equal(t, models.RoleAdmin, response.User.Role, "first account is bootstrapped as admin")
	assert.NotEmpty(t, w.Result().Cookies(), "expected session cookie to be set")

	claims, err := env.tokens.Parse(response.Token)
	require.NoError(t, err)
	assert.Equal(t, response.User.ID, claims.UserID)
}

func TestAuthHandler_SignupValidation(t *testing.T) {
	env := setupTestEnv(t)
	handler := NewAuthHandler(env.authService, zap.NewNop())
	env.createUser(t, "taken", models.RoleUser)

	r := env.router(nil)
	r.POST("/api/auth/signup", handler.Signup)

	tests := []struct {
		name    string
		payload any
		status  int
		code    string
	}{
		{"malformed body", "{", http.StatusBadRequest, apierrors.ErrCodeInvalidInput},
		{"short password", map[string]string{"username": "someone", "email": "s@example.com", "password": "short"}, http.StatusBadRequest, apierrors.ErrCodeInvalidInput},
		{"duplicate email", map[string]string{"username": "other", "email": "taken@example.com", "password": testPassword}, http.StatusConflict, apierrors.ErrCodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/auth/signup", tt.payload)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decode[apierrors.APIError](t, w).Code)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	env := setupTestEnv(t)
	handler := NewAuthHandler(env.authService, zap.NewNop())
	user := env.createUser(t, "existing", models.RoleUser)

	r := env.router(nil)
	r.POST("/api/auth/login", handler.Login)

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    user.Email,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	response := decode[dto.AuthResponse](t, w)
	assert.Equal(t, user.ID, response.User.ID)
	assert.NotEmpty(t, response.Token)
	assert.NotEmpty(t, w.Result().Cookies(), "expected session cookie to be set")

	w = doJSON(t, r, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    user.Email,
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apierrors.ErrCodeUnauthorized, decode[apierrors.APIError](t, w).Code)
}

func TestAuthHandler_IdentityDisabled(t *testing.T) {
	env := setupTestEnv(t)
	handler := NewAuthHandler(env.authService, zap.NewNop())

	r := env.router(nil)
	r.POST("/api/auth/identity", handler.Identity)

	w := doJSON(t, r, http.MethodPost, "/api/auth/identity", map[string]string{"assertion": "anything"})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, apierrors.ErrCodeServiceUnavailable, decode[apierrors.APIError](t, w).Code)
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	env := setupTestEnv(t)
	handler := NewAuthHandler(env.authService, zap.NewNop())
	user := env.createUser(t, "current-user", models.RoleUser)

	r := env.router(user)
	r.GET("/api/auth/me", handler.GetCurrentUser)

	w := doJSON(t, r, http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)

	response := decode[dto.UserDTO](t, w)
	assert.Equal(t, user.ID, response.ID)
	assert.True(t, response.HasPassword)
}

func TestAuthHandler_GetCurrentUserRequiresActor(t *testing.T) {
	env := setupTestEnv(t)
	handler := NewAuthHandler(env.authService, zap.NewNop())

	r := env.router(nil)
	r.GET("/api/auth/me", handler.GetCurrentUser)

	w := doJSON(t, r, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	env := setupTestEnv(t)
	handler := NewAuthHandler(env.authService, zap.NewNop())

	r := env.router(nil)
	r.POST("/api/auth/logout", handler.Logout)

	w := doJSON(t, r, http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Logged out successfully")
}
