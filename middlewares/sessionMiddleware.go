package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/config"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/models"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/utils"
)

// SessionMiddleware resolves the redis-backed session token into request
// context. Requests without a token pass through; protected groups add
// RequireLogin behind this.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		username, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetUsernameInContext(ctx, username)

		// resolve the account for role gating, cache User:$username
		user := models.User{}
		cached, err := config.GetRedisObject("User:"+username, &user)
		if err == nil && !cached {
			db := config.GetDB()
			if err := db.WithContext(ctx).Where("username = ?", username).Take(&user).Error; err == nil {
				_ = config.SetRedisObject("User:"+username, &user, utils.GetCacheLifespan())
			}
		}
		if user.ID > 0 {
			ctx = utils.SetUserIdInContext(ctx, user.ID)
			ctx = utils.SetUserNameInContext(ctx, user.Name)
			ctx = utils.SetRoleIdInContext(ctx, user.RoleId)
			ctx = utils.SetIsAdminInContext(ctx, user.RoleId == 0)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireLogin aborts requests that did not present a valid session.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := utils.GetUsernameFromContext(c.Request.Context())
		if !ok || username == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}
