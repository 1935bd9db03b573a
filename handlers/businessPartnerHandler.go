package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/models"
)

func cardTypeQuery(c *gin.Context) (models.CardType, bool) {
	cardType := models.CardType(c.Query("card_type"))
	if !cardType.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card_type must be one of S, C, L"})
		return "", false
	}
	return cardType, true
}

// GET /api/business-partners?card_type=S|C|L
func ListBusinessPartnersHandler(c *gin.Context) {
	cardType, ok := cardTypeQuery(c)
	if !ok {
		return
	}
	partners, err := models.GetBusinessPartners(c.Request.Context(), cardType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"business_partners": partners})
}

// GET /api/business-partners/:id
func GetBusinessPartnerHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	partner, err := models.GetBusinessPartner(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "business partner not found"})
		return
	}
	c.JSON(http.StatusOK, partner)
}

// POST /api/business-partners
func CreateBusinessPartnerHandler(c *gin.Context) {
	var input models.NewBusinessPartner
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	partner, err := models.CreateBusinessPartner(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, partner)
}

// PUT /api/business-partners/:id
func UpdateBusinessPartnerHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewBusinessPartner
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	partner, err := models.UpdateBusinessPartner(c.Request.Context(), id, &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, partner)
}

// DELETE /api/business-partners/:id
func DeleteBusinessPartnerHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	partner, err := models.DeleteBusinessPartner(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, partner)
}

// POST /api/business-partners/export?card_type=S|C|L
func ExportBusinessPartnersHandler(c *gin.Context) {
	cardType, ok := cardTypeQuery(c)
	if !ok {
		return
	}
	result, err := models.ExportBusinessPartners(c.Request.Context(), cardType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
