package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/models"
)

// GET /api/items
func ListItemsHandler(c *gin.Context) {
	items, err := models.GetItems(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GET /api/items/:id
func GetItemHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	item, err := models.GetItem(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	c.JSON(http.StatusOK, item)
}

// POST /api/items
func CreateItemHandler(c *gin.Context) {
	var input models.NewItem
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := models.CreateItem(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, item)
}

// PUT /api/items/:id
func UpdateItemHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewItem
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := models.UpdateItem(c.Request.Context(), id, &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, item)
}

// DELETE /api/items/:id
func DeleteItemHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	item, err := models.DeleteItem(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, item)
}

// POST /api/items/export
func ExportItemsHandler(c *gin.Context) {
	result, err := models.ExportItems(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
