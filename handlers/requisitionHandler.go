package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/models"
)

// GET /api/requisitions?status=
func ListRequisitionsHandler(c *gin.Context) {
	var status *models.RequisitionStatus
	if v := c.Query("status"); v != "" {
		s := models.RequisitionStatus(v)
		if !s.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown requisition status: " + v})
			return
		}
		status = &s
	}
	requisitions, err := models.GetRequisitions(c.Request.Context(), status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requisitions": requisitions})
}

// GET /api/requisitions/:id
func GetRequisitionHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	requisition, err := models.GetRequisition(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "requisition not found"})
		return
	}
	c.JSON(http.StatusOK, requisition)
}

// POST /api/requisitions
func CreateRequisitionHandler(c *gin.Context) {
	var input models.NewRequisition
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	requisition, err := models.CreateRequisition(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, requisition)
}

// PUT /api/requisitions/:id
func UpdateRequisitionHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewRequisition
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	requisition, err := models.UpdateRequisition(c.Request.Context(), id, &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, requisition)
}

type requisitionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PUT /api/requisitions/:id/status
func ChangeRequisitionStatusHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req requisitionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	status := models.RequisitionStatus(req.Status)
	if !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown requisition status: " + req.Status})
		return
	}
	requisition, err := models.ChangeRequisitionStatus(c.Request.Context(), id, status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, requisition)
}

// DELETE /api/requisitions/:id
func DeleteRequisitionHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	requisition, err := models.DeleteRequisition(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, requisition)
}
