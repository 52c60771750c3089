package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/gdg-soe/ticketing/internal/models"
	"github.com/gdg-soe/ticketing/pkg/response"
)

// RequireRole allows only requests whose token carries one of the given
// roles. Must run after JWT, which puts the role in the context.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[string(r)] = struct{}{}
	}
	return func(c *gin.Context) {
		role := c.GetString(ContextUserRole)
		if role == "" {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
