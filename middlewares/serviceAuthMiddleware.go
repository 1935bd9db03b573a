package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/utils"
)

// ServiceAuth validates a machine-to-machine JWT (Cloud Scheduler, internal
// jobs) from the Authorization header. No redis session is involved.
func ServiceAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		raw := strings.TrimSpace(auth[7:])

		token, err := utils.JwtValidate(raw)
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(*utils.JwtCustomClaim)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetUsernameInContext(c.Request.Context(), claims.Role)
		ctx = utils.SetUserIdInContext(ctx, claims.ID)
		ctx = utils.SetUserNameInContext(ctx, claims.Role)
		ctx = utils.SetIsAdminInContext(ctx, true)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
