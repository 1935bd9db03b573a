package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/models"
)

// GET /api/quotations?requisition_id=&status=
func ListQuotationsHandler(c *gin.Context) {
	var requisitionId *int
	if v := c.Query("requisition_id"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid requisition_id"})
			return
		}
		requisitionId = &n
	}
	var status *models.QuotationStatus
	if v := c.Query("status"); v != "" {
		s := models.QuotationStatus(v)
		if !s.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown quotation status: " + v})
			return
		}
		status = &s
	}
	quotations, err := models.GetQuotations(c.Request.Context(), requisitionId, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotations": quotations})
}

// GET /api/quotations/:id
func GetQuotationHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	quotation, err := models.GetQuotation(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "quotation not found"})
		return
	}
	c.JSON(http.StatusOK, quotation)
}

// POST /api/quotations
func CreateQuotationHandler(c *gin.Context) {
	var input models.NewQuotation
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	quotation, err := models.CreateQuotation(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, quotation)
}

// PUT /api/quotations/:id
func UpdateQuotationHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewQuotation
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	quotation, err := models.UpdateQuotation(c.Request.Context(), id, &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, quotation)
}

type quotationStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PUT /api/quotations/:id/status
func ChangeQuotationStatusHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req quotationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	status := models.QuotationStatus(req.Status)
	if !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown quotation status: " + req.Status})
		return
	}
	quotation, err := models.ChangeQuotationStatus(c.Request.Context(), id, status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, quotation)
}

// DELETE /api/quotations/:id
func DeleteQuotationHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	quotation, err := models.DeleteQuotation(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, quotation)
}
