package middlewares

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/config"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/models"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/utils"
)

/*
cache
	AllowedPaths:Role:$roleId -> map["module|action"]bool
*/

func allowedActionsForRole(c *gin.Context, roleId int) (map[string]bool, error) {
	cacheKey := "AllowedPaths:Role:" + fmt.Sprint(roleId)

	var allowed map[string]bool
	exists, err := config.GetRedisObject(cacheKey, &allowed)
	if err != nil {
		return nil, err
	}
	if exists {
		return allowed, nil
	}

	allowed, err = models.GetAllowedActionsForRole(c.Request.Context(), roleId)
	if err != nil {
		return nil, err
	}
	if err := config.SetRedisObject(cacheKey, &allowed, utils.GetCacheLifespan()); err != nil {
		return nil, err
	}
	return allowed, nil
}

// RequirePermission gates a route on a module action ("items"/"read",
// "leads"/"convert", ...). Admins (role id 0) pass everything.
func RequirePermission(module string, action string) gin.HandlerFunc {
	key := strings.ToLower(module) + "|" + strings.ToLower(action)

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		isAdmin, _ := utils.GetIsAdminFromContext(ctx)
		if isAdmin {
			c.Next()
			return
		}

		roleId, ok := utils.GetRoleIdFromContext(ctx)
		if !ok || roleId <= 0 {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			c.Abort()
			return
		}

		allowed, err := allowedActionsForRole(c, roleId)
		if err != nil {
			config.LogError(config.GetLogger(), "middlewares", "RequirePermission", "failed to load role permissions", key, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check permissions"})
			c.Abort()
			return
		}
		if !allowed[key] {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			c.Abort()
			return
		}
		c.Next()
	}
}
