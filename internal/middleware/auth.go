package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"sav3_backend/internal/auth"
	"sav3_backend/internal/logger"
	"sav3_backend/internal/models"
	"sav3_backend/pkg/apperrors"
)

// AuthMiddleware validates the bearer token and stores the claims in
// the gin context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abortWithError(c, apperrors.NewUnauthorizedError("authorization header missing or invalid"))
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := auth.ParseToken(tokenStr)
		if err != nil {
			abortWithError(c, apperrors.NewUnauthorizedError("invalid token"))
			return
		}

		ctx := logger.WithUserID(c.Request.Context(), claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Set("userID", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireRoles rejects requests whose token role is not in the set.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		role := models.UserRole(c.GetString("role"))
		if role == "" {
			abortWithError(c, apperrors.NewForbiddenError("no role in token"))
			return
		}
		if !roleSet[role] {
			abortWithError(c, apperrors.NewForbiddenError("insufficient permissions"))
			return
		}
		c.Next()
	}
}

// RequireAdmin is shorthand for the admin route groups.
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(models.UserRoleAdmin)
}

// GetUserID extracts the authenticated user id from the context.
func GetUserID(c *gin.Context) string {
	return c.GetString("userID")
}

func abortWithError(c *gin.Context, err error) {
	apperrors.HandleError(c, err)
	c.Abort()
}
