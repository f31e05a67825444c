package middleware

import (
	"github.com/gin-gonic/gin"

	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/models"
)

// RequireRole allows only actors holding role. Must run after RequireAuth.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			apierrors.Abort(c, apierrors.ErrCodeUnauthorized, "")
			return
		}

		if actor.Role != role {
			apierrors.Abort(c, apierrors.ErrCodeForbidden, "Insufficient role")
			return
		}

		c.Next()
	}
}
