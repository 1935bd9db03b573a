package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/utils"
)

// CorrelationMiddleware threads an x-correlation-id through the request,
// generating one when the caller did not send it.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationId := c.Request.Header.Get("x-correlation-id")
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), correlationId)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set("x-correlation-id", correlationId)
		c.Next()
	}
}
