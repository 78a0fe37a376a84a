package middleware

import (
	"errors"

	apperrors "github.com/backlot-hq/backlot-backend/errors"
	istore "github.com/backlot-hq/backlot-backend/internal/store"
	"github.com/backlot-hq/backlot-backend/logger"
	"github.com/backlot-hq/backlot-backend/types"
	"github.com/gin-gonic/gin"
)

// ProjectRoleMiddleware resolves the authenticated user's role in the
// project named by the :id route parameter and stores it in the context.
// Non-members are rejected before any handler runs. Handlers and the
// service layer gate on the role loaded here, never on anything
// client-supplied.
func ProjectRoleMiddleware(memberships istore.MembershipStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID := c.Param("id")
		if projectID == "" {
			_ = c.Error(apperrors.ValidationFailed("Project ID missing", "project id is required"))
			c.Abort()
			return
		}

		userID := c.GetString(string(UserIDKey))
		if userID == "" {
			_ = c.Error(apperrors.AuthenticationFailed("User not authenticated"))
			c.Abort()
			return
		}

		membership, err := memberships.GetProjectMembership(c.Request.Context(), projectID, userID)
		if err != nil {
			if errors.Is(err, istore.ErrNotFound) {
				_ = c.Error(apperrors.Forbidden("Not a project member",
					"user has no role in this project"))
			} else {
				logger.GetLogger().Errorw("Failed to load project membership",
					"project_id", projectID, "user_id", userID, "error", err)
				_ = c.Error(apperrors.NewDatabaseError(err))
			}
			c.Abort()
			return
		}

		c.Set(string(ProjectRoleKey), membership.Role)
		c.Next()
	}
}

// RoleFromContext returns the project role loaded by ProjectRoleMiddleware,
// or ProjectRoleNone when absent.
func RoleFromContext(c *gin.Context) types.ProjectRole {
	if v, exists := c.Get(string(ProjectRoleKey)); exists {
		if role, ok := v.(types.ProjectRole); ok {
			return role
		}
	}
	return types.ProjectRoleNone
}
