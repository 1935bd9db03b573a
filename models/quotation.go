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

// Quotation is a supplier quotation against a requisition.
type Quotation struct {
	ID            int              `gorm:"primary_key" json:"id"`
	RequisitionId int              `gorm:"index;not null" json:"requisition_id" binding:"required"`
	SupplierCode  string           `gorm:"index;size:50;not null" json:"supplier_code" binding:"required"`
	Status        QuotationStatus  `gorm:"type:enum('open','accepted','rejected');default:'open'" json:"status"`
	ValidUntil    *time.Time       `json:"valid_until"`
	Notes         string           `gorm:"type:text" json:"notes"`
	Lines         []*QuotationLine `gorm:"foreignKey:QuotationId" json:"lines"`
	TotalAmount   decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	Attachments   []*Attachment    `gorm:"polymorphic:Reference" json:"attachments"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `gorm:"index" json:"-"`
}

type QuotationLine struct {
	ID          int             `gorm:"primary_key" json:"id"`
	QuotationId int             `gorm:"index;not null" json:"quotation_id"`
	ItemCode    string          `gorm:"size:50;not null" json:"item_code"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"line_total"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewQuotation struct {
	RequisitionId int                 `json:"requisition_id" binding:"required"`
	SupplierCode  string              `json:"supplier_code" binding:"required"`
	ValidUntil    *time.Time          `json:"valid_until"`
	Notes         string              `json:"notes"`
	Lines         []*NewQuotationLine `json:"lines" binding:"required"`
}

type NewQuotationLine struct {
	ItemCode  string          `json:"item_code" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
}

func (input *NewQuotation) validate(ctx context.Context) error {
	if len(input.Lines) == 0 {
		return errors.New("at least one line is required")
	}
	if err := utils.ValidateResourceId[Requisition](ctx, input.RequisitionId); err != nil {
		return errors.New("requisition not found")
	}

	supplier, err := GetBusinessPartnerByCode(ctx, input.SupplierCode)
	if err != nil {
		return errors.New("supplier not found")
	}
	if supplier.CardType != CardTypeSupplier {
		return errors.New("business partner is not a supplier")
	}

	for _, line := range input.Lines {
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			return errors.New("line quantity must be positive")
		}
		if line.UnitPrice.IsNegative() {
			return errors.New("line unit price must not be negative")
		}
	}
	return nil
}

func mapQuotationLines(input []*NewQuotationLine) ([]*QuotationLine, decimal.Decimal) {
	var lines []*QuotationLine
	total := decimal.Zero
	for _, l := range input {
		lineTotal := l.Quantity.Mul(l.UnitPrice)
		total = total.Add(lineTotal)
		lines = append(lines, &QuotationLine{
			ItemCode:  l.ItemCode,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: lineTotal,
		})
	}
	return lines, total
}

func CreateQuotation(ctx context.Context, input *NewQuotation) (*Quotation, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	lines, total := mapQuotationLines(input.Lines)
	quotation := Quotation{
		RequisitionId: input.RequisitionId,
		SupplierCode:  input.SupplierCode,
		Status:        QuotationStatusOpen,
		ValidUntil:    input.ValidUntil,
		Notes:         input.Notes,
		Lines:         lines,
		TotalAmount:   total,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&quotation).Error; err != nil {
		return nil, err
	}
	return &quotation, nil
}

func UpdateQuotation(ctx context.Context, id int, input *NewQuotation) (*Quotation, error) {

	quotation, err := utils.FetchModel[Quotation](ctx, id)
	if err != nil {
		return nil, err
	}
	if quotation.Status != QuotationStatusOpen {
		return nil, errors.New("only open quotations can be edited")
	}
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	lines, total := mapQuotationLines(input.Lines)

	db := config.GetDB()
	tx := db.Begin()

	// full replace of lines
	err = tx.WithContext(ctx).Model(&quotation).
		Session(&gorm.Session{FullSaveAssociations: true, SkipHooks: true}).
		Association("Lines").Unscoped().Replace(lines)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	err = tx.WithContext(ctx).Model(&quotation).Updates(map[string]interface{}{
		"RequisitionId": input.RequisitionId,
		"SupplierCode":  input.SupplierCode,
		"ValidUntil":    input.ValidUntil,
		"Notes":         input.Notes,
		"TotalAmount":   total,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	quotation.Lines = lines
	quotation.TotalAmount = total
	return quotation, tx.Commit().Error
}

// Accepting a quotation rejects the requisition's other open quotations.
func ChangeQuotationStatus(ctx context.Context, id int, status QuotationStatus) (*Quotation, error) {

	if !status.IsValid() {
		return nil, errors.New("invalid quotation status")
	}

	quotation, err := utils.FetchModel[Quotation](ctx, id)
	if err != nil {
		return nil, err
	}
	if quotation.Status != QuotationStatusOpen {
		return nil, errors.New("quotation is already closed")
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(&quotation).UpdateColumn("status", status).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if status == QuotationStatusAccepted {
		err = tx.WithContext(ctx).Model(&Quotation{}).
			Where("requisition_id = ? AND status = ? AND id != ?", quotation.RequisitionId, QuotationStatusOpen, id).
			UpdateColumn("status", QuotationStatusRejected).Error
		if err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	return quotation, tx.Commit().Error
}

func DeleteQuotation(ctx context.Context, id int) (*Quotation, error) {

	quotation, err := utils.FetchModel[Quotation](ctx, id)
	if err != nil {
		return nil, err
	}
	if quotation.Status == QuotationStatusAccepted {
		return nil, errors.New("accepted quotation cannot be deleted")
	}

	db := config.GetDB()
	// soft delete
	if err := db.WithContext(ctx).Delete(&quotation).Error; err != nil {
		return nil, err
	}
	return quotation, nil
}

func GetQuotation(ctx context.Context, id int) (*Quotation, error) {
	return utils.FetchModel[Quotation](ctx, id, "Lines", "Attachments")
}

func GetQuotations(ctx context.Context, requisitionId *int, status *QuotationStatus) ([]*Quotation, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Lines")
	if requisitionId != nil && *requisitionId > 0 {
		dbCtx = dbCtx.Where("requisition_id = ?", *requisitionId)
	}
	if status != nil && *status != "" {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	var results []*Quotation
	if err := dbCtx.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
