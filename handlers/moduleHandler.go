package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/models"
)

// GET /api/modules
func ListModulesHandler(c *gin.Context) {
	modules, err := models.GetModules(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"modules": modules})
}

// GET /api/modules/:id
func GetModuleHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	module, err := models.GetModule(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "module not found"})
		return
	}
	c.JSON(http.StatusOK, module)
}

// POST /api/modules
func CreateModuleHandler(c *gin.Context) {
	var input models.NewModule
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	module, err := models.CreateModule(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, module)
}

// PUT /api/modules/:id
func UpdateModuleHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewModule
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	module, err := models.UpdateModule(c.Request.Context(), id, &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, module)
}

// DELETE /api/modules/:id
func DeleteModuleHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	module, err := models.DeleteModule(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, module)
}
