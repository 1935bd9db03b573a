package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/models"
)

// GET /api/attachments?reference_type=&reference_id=
func ListAttachmentsHandler(c *gin.Context) {
	referenceType := c.Query("reference_type")
	referenceId, err := strconv.Atoi(c.Query("reference_id"))
	if referenceType == "" || err != nil || referenceId <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference_type and reference_id are required"})
		return
	}
	attachments, err := models.GetAttachments(c.Request.Context(), referenceType, referenceId)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"attachments": attachments})
}

// POST /api/attachments (multipart: file, reference_type, reference_id)
func UploadAttachmentHandler(c *gin.Context) {
	referenceType := c.PostForm("reference_type")
	referenceId, err := strconv.Atoi(c.PostForm("reference_id"))
	if referenceType == "" || err != nil || referenceId <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference_type and reference_id are required"})
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	attachment, err := models.UploadAttachment(
		c.Request.Context(),
		referenceType,
		referenceId,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"attachment": attachment,
		"url":        attachment.AccessURL(),
		"thumbnail":  attachment.ThumbnailURL(),
	})
}

type signUploadRequest struct {
	ReferenceType string `json:"reference_type" binding:"required"`
	FileName      string `json:"file_name" binding:"required"`
	ContentType   string `json:"content_type" binding:"required"`
}

// POST /api/attachments/sign
// Issues a signed PUT URL so large files go straight to the bucket.
func SignAttachmentUploadHandler(c *gin.Context) {
	var req signUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference_type, file_name and content_type are required"})
		return
	}
	signed, err := models.RequestAttachmentUpload(c.Request.Context(), req.ReferenceType, req.FileName, req.ContentType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, signed)
}

type registerAttachmentRequest struct {
	ReferenceType string `json:"reference_type" binding:"required"`
	ReferenceId   int    `json:"reference_id" binding:"required"`
	FileName      string `json:"file_name" binding:"required"`
	ContentType   string `json:"content_type" binding:"required"`
	ObjectKey     string `json:"object_key" binding:"required"`
	SizeBytes     int64  `json:"size_bytes"`
}

// POST /api/attachments/register
// Records an object uploaded through a signed URL.
func RegisterAttachmentHandler(c *gin.Context) {
	var req registerAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	attachment, err := models.RegisterAttachment(
		c.Request.Context(),
		req.ReferenceType,
		req.ReferenceId,
		req.FileName,
		req.ContentType,
		req.ObjectKey,
		req.SizeBytes,
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, attachment)
}

// DELETE /api/attachments/:id
func DeleteAttachmentHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	attachment, err := models.DeleteAttachment(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, attachment)
}
