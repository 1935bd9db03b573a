package models

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/config"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/utils"
)

// Attachment is a polymorphic file reference stored in Google Cloud Storage.
type Attachment struct {
	ID            int       `gorm:"primary_key" json:"id"`
	ReferenceId   int       `gorm:"index" json:"reference_id"`
	ReferenceType string    `gorm:"index;size:50" json:"reference_type"`
	FileName      string    `gorm:"size:255;not null" json:"file_name"`
	ContentType   string    `gorm:"size:100" json:"content_type"`
	ObjectKey     string    `gorm:"size:512;not null" json:"object_key"`
	ThumbnailKey  string    `gorm:"size:512" json:"thumbnail_key"`
	SizeBytes     int64     `json:"size_bytes"`
	UploadedBy    int       `json:"uploaded_by"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Attachment) AccessURL() string {
	return utils.BuildObjectAccessURL(a.ObjectKey)
}

func (a *Attachment) ThumbnailURL() string {
	if a.ThumbnailKey == "" {
		return ""
	}
	return utils.BuildObjectAccessURL(a.ThumbnailKey)
}

func validReferenceType(referenceType string) bool {
	switch referenceType {
	case "leads", "requisitions", "quotations":
		return true
	}
	return false
}

func attachmentObjectKey(referenceType string, fileName string) string {
	ext := filepath.Ext(fileName)
	return fmt.Sprintf("attachments/%s/%s_%s%s", referenceType, utils.GenerateUniqueFilename(), uuid.NewString()[:8], ext)
}

// UploadAttachment stores the file, generates a thumbnail for images, and
// registers the record against its parent.
func UploadAttachment(ctx context.Context, referenceType string, referenceId int, fileName string, contentType string, file io.Reader) (*Attachment, error) {

	if !validReferenceType(referenceType) {
		return nil, errors.New("invalid reference type")
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	objectKey := attachmentObjectKey(referenceType, fileName)
	if err := utils.UploadFileToGCS(ctx, objectKey, bytes.NewReader(data)); err != nil {
		return nil, err
	}

	var thumbnailKey string
	if contentType == "image/jpeg" || contentType == "image/png" {
		thumbnail, err := utils.MakeThumbnail(data)
		if err == nil {
			thumbnailKey = objectKey + "_thumb.jpg"
			if err := utils.UploadBytesToGCS(ctx, thumbnailKey, thumbnail, "image/jpeg"); err != nil {
				thumbnailKey = ""
			}
		}
	}

	uploadedBy, _ := utils.GetUserIdFromContext(ctx)
	attachment := Attachment{
		ReferenceId:   referenceId,
		ReferenceType: referenceType,
		FileName:      fileName,
		ContentType:   contentType,
		ObjectKey:     objectKey,
		ThumbnailKey:  thumbnailKey,
		SizeBytes:     int64(len(data)),
		UploadedBy:    uploadedBy,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&attachment).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

// RequestAttachmentUpload returns a V4 signed PUT URL; the client uploads
// directly to the bucket and then registers the attachment.
func RequestAttachmentUpload(ctx context.Context, referenceType string, fileName string, contentType string) (*utils.SignedUpload, error) {

	if !validReferenceType(referenceType) {
		return nil, errors.New("invalid reference type")
	}
	objectKey := attachmentObjectKey(referenceType, fileName)
	return utils.SignUpload(ctx, objectKey, contentType, 15*time.Minute)
}

// RegisterAttachment records an object uploaded through the signed URL flow.
func RegisterAttachment(ctx context.Context, referenceType string, referenceId int, fileName string, contentType string, objectKey string, sizeBytes int64) (*Attachment, error) {

	if !validReferenceType(referenceType) {
		return nil, errors.New("invalid reference type")
	}
	exists, err := utils.ObjectExistsInGCS(ctx, objectKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.New("object has not been uploaded")
	}

	uploadedBy, _ := utils.GetUserIdFromContext(ctx)
	attachment := Attachment{
		ReferenceId:   referenceId,
		ReferenceType: referenceType,
		FileName:      fileName,
		ContentType:   contentType,
		ObjectKey:     objectKey,
		SizeBytes:     sizeBytes,
		UploadedBy:    uploadedBy,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&attachment).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

func DeleteAttachment(ctx context.Context, id int) (*Attachment, error) {

	attachment, err := utils.FetchModel[Attachment](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Delete(&attachment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := utils.DeleteObjectFromGCS(ctx, attachment.ObjectKey); err != nil {
		tx.Rollback()
		return nil, err
	}
	if attachment.ThumbnailKey != "" {
		if err := utils.DeleteObjectFromGCS(ctx, attachment.ThumbnailKey); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	return attachment, tx.Commit().Error
}

func GetAttachments(ctx context.Context, referenceType string, referenceId int) ([]*Attachment, error) {

	if !validReferenceType(referenceType) {
		return nil, errors.New("invalid reference type")
	}
	db := config.GetDB()
	var results []*Attachment
	err := db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", referenceType, referenceId).
		Order("id").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
