package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/config"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/utils"
)

type Lead struct {
	ID          int            `gorm:"primary_key" json:"id"`
	Name        string         `gorm:"size:100;not null" json:"name" binding:"required"`
	Company     string         `gorm:"size:255" json:"company"`
	Email       string         `gorm:"size:100" json:"email"`
	Phone       string         `gorm:"size:30" json:"phone"`
	Stage       LeadStage      `gorm:"type:enum('new','contacted','qualified','converted','lost');default:'new'" json:"stage"`
	OwnerId     int            `gorm:"index" json:"owner_id"`
	Notes       string         `gorm:"type:text" json:"notes"`
	CardCode    string         `gorm:"size:50" json:"card_code"` // set on conversion
	Attachments []*Attachment  `gorm:"polymorphic:Reference" json:"attachments"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

type NewLead struct {
	Name    string    `json:"name" binding:"required"`
	Company string    `json:"company"`
	Email   string    `json:"email"`
	Phone   string    `json:"phone"`
	Stage   LeadStage `json:"stage"`
	Notes   string    `json:"notes"`
}

func (input *NewLead) validate() error {
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email address")
	}
	if input.Stage != "" && !input.Stage.IsValid() {
		return errors.New("invalid lead stage")
	}
	return nil
}

func CreateLead(ctx context.Context, input *NewLead) (*Lead, error) {

	if err := input.validate(); err != nil {
		return nil, err
	}

	ownerId, _ := utils.GetUserIdFromContext(ctx)
	stage := input.Stage
	if stage == "" {
		stage = LeadStageNew
	}

	lead := Lead{
		Name:    input.Name,
		Company: input.Company,
		Email:   input.Email,
		Phone:   utils.NormalizePhoneNumber(input.Phone, utils.CountryCode),
		Stage:   stage,
		OwnerId: ownerId,
		Notes:   input.Notes,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&lead).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

func UpdateLead(ctx context.Context, id int, input *NewLead) (*Lead, error) {

	if err := input.validate(); err != nil {
		return nil, err
	}

	lead, err := utils.FetchModel[Lead](ctx, id)
	if err != nil {
		return nil, err
	}
	if lead.Stage == LeadStageConverted {
		return nil, errors.New("converted lead cannot be edited")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&lead).Updates(map[string]interface{}{
		"Name":    input.Name,
		"Company": input.Company,
		"Email":   input.Email,
		"Phone":   utils.NormalizePhoneNumber(input.Phone, utils.CountryCode),
		"Stage":   input.Stage,
		"Notes":   input.Notes,
	}).Error
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func DeleteLead(ctx context.Context, id int) (*Lead, error) {

	lead, err := utils.FetchModel[Lead](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	// soft delete
	if err := db.WithContext(ctx).Delete(&lead).Error; err != nil {
		return nil, err
	}
	return lead, nil
}

func GetLead(ctx context.Context, id int) (*Lead, error) {
	return utils.FetchModel[Lead](ctx, id, "Attachments")
}

func GetLeads(ctx context.Context, stage *LeadStage, name *string) ([]*Lead, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if stage != nil && *stage != "" {
		dbCtx = dbCtx.Where("stage = ?", *stage)
	}
	if name != nil && *name != "" {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	var results []*Lead
	if err := dbCtx.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ConvertLead promotes a lead to a portal-owned business partner with SAP
// card type L and marks the lead converted. The partner and the stage change
// commit together.
func ConvertLead(ctx context.Context, id int, cardCode string) (*BusinessPartner, error) {

	lead, err := utils.FetchModel[Lead](ctx, id)
	if err != nil {
		return nil, err
	}
	if lead.Stage == LeadStageConverted {
		return nil, errors.New("lead already converted")
	}
	if err := utils.ValidateUnique[BusinessPartner](ctx, "card_code", cardCode, 0); err != nil {
		return nil, err
	}

	partner := BusinessPartner{
		CardCode:   cardCode,
		CardType:   CardTypeLead,
		CardName:   lead.Name,
		Phone:      lead.Phone,
		Address:    lead.Company,
		Source:     SourcePortal,
		SyncStatus: SyncStatusPending,
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&partner).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	err = tx.WithContext(ctx).Model(&lead).Updates(map[string]interface{}{
		"Stage":    LeadStageConverted,
		"CardCode": cardCode,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	invalidatePartnerCache("ConvertLead", CardTypeLead)
	return &partner, nil
}
