package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/config"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/utils"
)

type Requisition struct {
	ID          int                `gorm:"primary_key" json:"id"`
	Subject     string             `gorm:"size:255;not null" json:"subject" binding:"required"`
	Status      RequisitionStatus  `gorm:"type:enum('draft','submitted','approved','rejected');default:'draft'" json:"status"`
	RequestedBy int                `gorm:"index" json:"requested_by"`
	NeededBy    *time.Time         `json:"needed_by"`
	Notes       string             `gorm:"type:text" json:"notes"`
	Lines       []*RequisitionLine `gorm:"foreignKey:RequisitionId" json:"lines"`
	Attachments []*Attachment      `gorm:"polymorphic:Reference" json:"attachments"`
	CreatedAt   time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt     `gorm:"index" json:"-"`
}

type RequisitionLine struct {
	ID            int             `gorm:"primary_key" json:"id"`
	RequisitionId int             `gorm:"index;not null" json:"requisition_id"`
	ItemCode      string          `gorm:"size:50;not null" json:"item_code"`
	Description   string          `gorm:"size:255" json:"description"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewRequisition struct {
	Subject  string                `json:"subject" binding:"required"`
	NeededBy *time.Time            `json:"needed_by"`
	Notes    string                `json:"notes"`
	Lines    []*NewRequisitionLine `json:"lines" binding:"required"`
}

type NewRequisitionLine struct {
	ItemCode    string          `json:"item_code" binding:"required"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
}

func (input *NewRequisition) validate(ctx context.Context) error {
	if len(input.Lines) == 0 {
		return errors.New("at least one line is required")
	}
	for _, line := range input.Lines {
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			return errors.New("line quantity must be positive")
		}
		count, err := utils.ResourceCountWhere[Item](ctx, "item_code = ?", line.ItemCode)
		if err != nil {
			return err
		}
		if count == 0 {
			return errors.New("item not found: " + line.ItemCode)
		}
	}
	return nil
}

func mapRequisitionLines(input []*NewRequisitionLine) []*RequisitionLine {
	var lines []*RequisitionLine
	for _, l := range input {
		lines = append(lines, &RequisitionLine{
			ItemCode:    l.ItemCode,
			Description: l.Description,
			Quantity:    l.Quantity,
		})
	}
	return lines
}

func CreateRequisition(ctx context.Context, input *NewRequisition) (*Requisition, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	requestedBy, _ := utils.GetUserIdFromContext(ctx)
	requisition := Requisition{
		Subject:     input.Subject,
		Status:      RequisitionStatusDraft,
		RequestedBy: requestedBy,
		NeededBy:    input.NeededBy,
		Notes:       input.Notes,
		Lines:       mapRequisitionLines(input.Lines),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&requisition).Error; err != nil {
		return nil, err
	}
	return &requisition, nil
}

func UpdateRequisition(ctx context.Context, id int, input *NewRequisition) (*Requisition, error) {

	requisition, err := utils.FetchModel[Requisition](ctx, id)
	if err != nil {
		return nil, err
	}
	if requisition.Status != RequisitionStatusDraft {
		return nil, errors.New("only draft requisitions can be edited")
	}
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	lines := mapRequisitionLines(input.Lines)

	db := config.GetDB()
	tx := db.Begin()

	// full replace of lines
	err = tx.WithContext(ctx).Model(&requisition).
		Session(&gorm.Session{FullSaveAssociations: true, SkipHooks: true}).
		Association("Lines").Unscoped().Replace(lines)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	err = tx.WithContext(ctx).Model(&requisition).Updates(map[string]interface{}{
		"Subject":  input.Subject,
		"NeededBy": input.NeededBy,
		"Notes":    input.Notes,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	requisition.Lines = lines
	return requisition, tx.Commit().Error
}

// status flow: draft -> submitted -> approved/rejected
func ChangeRequisitionStatus(ctx context.Context, id int, status RequisitionStatus) (*Requisition, error) {

	if !status.IsValid() {
		return nil, errors.New("invalid requisition status")
	}

	requisition, err := utils.FetchModel[Requisition](ctx, id)
	if err != nil {
		return nil, err
	}

	valid := false
	switch requisition.Status {
	case RequisitionStatusDraft:
		valid = status == RequisitionStatusSubmitted
	case RequisitionStatusSubmitted:
		valid = status == RequisitionStatusApproved || status == RequisitionStatusRejected
	}
	if !valid {
		return nil, errors.New("invalid status transition")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&requisition).UpdateColumn("status", status).Error; err != nil {
		return nil, err
	}
	return requisition, nil
}

func DeleteRequisition(ctx context.Context, id int) (*Requisition, error) {

	requisition, err := utils.FetchModel[Requisition](ctx, id)
	if err != nil {
		return nil, err
	}
	if requisition.Status == RequisitionStatusApproved {
		return nil, errors.New("approved requisition cannot be deleted")
	}

	count, err := utils.ResourceCountWhere[Quotation](ctx, "requisition_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("requisition has quotations")
	}

	db := config.GetDB()
	// soft delete
	if err := db.WithContext(ctx).Delete(&requisition).Error; err != nil {
		return nil, err
	}
	return requisition, nil
}

func GetRequisition(ctx context.Context, id int) (*Requisition, error) {
	return utils.FetchModel[Requisition](ctx, id, "Lines", "Attachments")
}

func GetRequisitions(ctx context.Context, status *RequisitionStatus) ([]*Requisition, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Lines")
	if status != nil && *status != "" {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	var results []*Requisition
	if err := dbCtx.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
