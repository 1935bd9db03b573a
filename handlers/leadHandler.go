package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/models"
)

// GET /api/leads?stage=&name=
func ListLeadsHandler(c *gin.Context) {
	var stage *models.LeadStage
	if v := c.Query("stage"); v != "" {
		s := models.LeadStage(v)
		if !s.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown lead stage: " + v})
			return
		}
		stage = &s
	}
	var name *string
	if v := c.Query("name"); v != "" {
		name = &v
	}
	leads, err := models.GetLeads(c.Request.Context(), stage, name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": leads})
}

// GET /api/leads/:id
func GetLeadHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	lead, err := models.GetLead(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}
	c.JSON(http.StatusOK, lead)
}

// POST /api/leads
func CreateLeadHandler(c *gin.Context) {
	var input models.NewLead
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lead, err := models.CreateLead(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, lead)
}

// PUT /api/leads/:id
func UpdateLeadHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewLead
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lead, err := models.UpdateLead(c.Request.Context(), id, &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, lead)
}

// DELETE /api/leads/:id
func DeleteLeadHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	lead, err := models.DeleteLead(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, lead)
}

type convertLeadRequest struct {
	CardCode string `json:"card_code" binding:"required"`
}

// POST /api/leads/:id/convert
func ConvertLeadHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req convertLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card_code is required"})
		return
	}
	partner, err := models.ConvertLead(c.Request.Context(), id, req.CardCode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, partner)
}
