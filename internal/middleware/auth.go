package middleware

import (
	"errors"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/taskboard-api/internal/auth"
	"github.com/yukikurage/taskboard-api/internal/constants"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
)

// AccessTokenQueryParam carries the bearer token for clients that cannot
// set headers, such as browser EventSource.
const AccessTokenQueryParam = "access_token"

// Authenticator resolves the actor of a request from a bearer token or the
// browser session.
type Authenticator struct {
	tokens *auth.TokenManager
	users  repository.UserRepository
	log    *zap.Logger
}

func NewAuthenticator(tokens *auth.TokenManager, users repository.UserRepository, log *zap.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, log: log}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return c.Query(AccessTokenQueryParam)
}

func sessionUserID(c *gin.Context) (uint64, bool) {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return 0, false
	}
	switch v := sessions.Default(c).Get(constants.ContextKeyUserID).(type) {
	case uint64:
		return v, v != 0
	case uint:
		return uint64(v), v != 0
	case int:
		return uint64(v), v > 0
	case int64:
		return uint64(v), v > 0
	default:
		return 0, false
	}
}

// RequireAuth authenticates the request and attaches the actor. The role is
// always read from the user directory so role changes apply immediately.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID uint64

		if raw := bearerToken(c); raw != "" {
			claims, err := a.tokens.Parse(raw)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					apierrors.Abort(c, apierrors.ErrCodeTokenExpired, "")
				} else {
					apierrors.Abort(c, apierrors.ErrCodeUnauthorized, "Invalid token")
				}
				return
			}
			userID = claims.UserID
		} else if id, ok := sessionUserID(c); ok {
			userID = id
		} else {
			apierrors.Abort(c, apierrors.ErrCodeUnauthorized, "")
			return
		}

		user, err := a.users.FindByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.Abort(c, apierrors.ErrCodeUnauthorized, "Account no longer exists")
			} else {
				a.log.Error("failed to load authenticated user", zap.Uint64("user_id", userID), zap.Error(err))
				apierrors.Abort(c, apierrors.ErrCodeInternalError, "")
			}
			return
		}

		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyActor, user.Actor())
		c.Next()
	}
}

// GetActor retrieves the authenticated actor from context
func GetActor(c *gin.Context) (models.Actor, bool) {
	value, exists := c.Get(constants.ContextKeyActor)
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := value.(models.Actor)
	return actor, ok && actor.Authenticated()
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
