package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// idParam parses the :id path segment; writes the 400 itself on bad input.
func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
