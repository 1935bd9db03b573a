package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/config"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/utils"
)

// BusinessPartner is the partner master, partitioned by SAP card type
// (S supplier, C customer, L lead). Natural key is CardCode; each card type
// reconciles as its own sync domain.
type BusinessPartner struct {
	ID         int        `gorm:"primary_key" json:"id"`
	CardCode   string     `gorm:"uniqueIndex;size:50;not null" json:"card_code" binding:"required"`
	CardType   CardType   `gorm:"index;type:enum('S','C','L');not null" json:"card_type" binding:"required"`
	CardName   string     `gorm:"size:255" json:"card_name"`
	GroupCode  string     `gorm:"size:20" json:"group_code"`
	Currency   string     `gorm:"size:10" json:"currency"`
	Phone      string     `gorm:"size:30" json:"phone"`
	Address    string     `gorm:"size:255" json:"address"`
	CreateDate string     `gorm:"size:8" json:"create_date"`
	UpdateDate string     `gorm:"size:8" json:"update_date"`
	Source     SourceType `gorm:"type:enum('sap','portal');default:'portal'" json:"source"`
	SyncStatus SyncStatus `gorm:"type:enum('synced','pending','error');default:'pending'" json:"sync_status"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBusinessPartner struct {
	CardCode  string   `json:"card_code" binding:"required"`
	CardType  CardType `json:"card_type" binding:"required"`
	CardName  string   `json:"card_name" binding:"required"`
	GroupCode string   `json:"group_code"`
	Currency  string   `json:"currency"`
	Phone     string   `json:"phone"`
	Address   string   `json:"address"`
}

func BusinessPartnerCacheTag(cardType CardType) string {
	return "bp-master-" + string(cardType)
}

// invalidation runs only after the write is committed; dropping the tag
// earlier lets a concurrent list read re-cache the pre-commit rows
func invalidatePartnerCache(funcName string, cardTypes ...CardType) {
	for _, cardType := range cardTypes {
		if err := utils.InvalidateTag(BusinessPartnerCacheTag(cardType)); err != nil {
			config.LogError(config.GetLogger(), "businessPartner", funcName, "cache invalidation failed", string(cardType), err)
		}
	}
}

func (input *NewBusinessPartner) validate(ctx context.Context, id int) error {
	if !input.CardType.IsValid() {
		return errors.New("invalid card type")
	}
	if id > 0 {
		if err := utils.ValidateResourceId[BusinessPartner](ctx, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[BusinessPartner](ctx, "card_code", input.CardCode, id); err != nil {
		return err
	}
	return nil
}

func CreateBusinessPartner(ctx context.Context, input *NewBusinessPartner) (*BusinessPartner, error) {

	input.CardCode = strings.TrimSpace(input.CardCode)
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	partner := BusinessPartner{
		CardCode:   input.CardCode,
		CardType:   input.CardType,
		CardName:   input.CardName,
		GroupCode:  input.GroupCode,
		Currency:   input.Currency,
		Phone:      utils.NormalizePhoneNumber(input.Phone, utils.CountryCode),
		Address:    input.Address,
		Source:     SourcePortal,
		SyncStatus: SyncStatusPending,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&partner).Error; err != nil {
		// validate() races with concurrent creates; the unique index is the authority
		if utils.IsDuplicateEntryErr(err) {
			return nil, errors.New("card_code already exists")
		}
		return nil, err
	}
	invalidatePartnerCache("CreateBusinessPartner", partner.CardType)
	return &partner, nil
}

func UpdateBusinessPartner(ctx context.Context, id int, input *NewBusinessPartner) (*BusinessPartner, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	partner, err := utils.FetchModel[BusinessPartner](ctx, id)
	if err != nil {
		return nil, err
	}
	if partner.Source == SourceSap {
		return nil, errors.New("sap-owned business partner cannot be edited")
	}

	previousCardType := partner.CardType

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&partner).Updates(map[string]interface{}{
		"CardCode":  input.CardCode,
		"CardType":  input.CardType,
		"CardName":  input.CardName,
		"GroupCode": input.GroupCode,
		"Currency":  input.Currency,
		"Phone":     utils.NormalizePhoneNumber(input.Phone, utils.CountryCode),
		"Address":   input.Address,
	}).Error
	if err != nil {
		return nil, err
	}
	// old and new card type tags, partner may have moved partitions
	invalidatePartnerCache("UpdateBusinessPartner", previousCardType, input.CardType)
	return partner, nil
}

func DeleteBusinessPartner(ctx context.Context, id int) (*BusinessPartner, error) {

	partner, err := utils.FetchModel[BusinessPartner](ctx, id)
	if err != nil {
		return nil, err
	}
	if partner.Source == SourceSap {
		return nil, errors.New("sap-owned business partner cannot be deleted")
	}

	count, err := utils.ResourceCountWhere[Quotation](ctx, "supplier_code = ?", partner.CardCode)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("business partner is used in a quotation")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(&partner).Error; err != nil {
		return nil, err
	}
	invalidatePartnerCache("DeleteBusinessPartner", partner.CardType)
	return partner, nil
}

func GetBusinessPartner(ctx context.Context, id int) (*BusinessPartner, error) {
	return utils.FetchModel[BusinessPartner](ctx, id)
}

func GetBusinessPartnerByCode(ctx context.Context, cardCode string) (*BusinessPartner, error) {
	return utils.FetchModelWhere[BusinessPartner](ctx, "card_code = ?", cardCode)
}

// GetBusinessPartners serves one card-type partition through the tagged cache.
func GetBusinessPartners(ctx context.Context, cardType CardType) ([]*BusinessPartner, error) {

	if !cardType.IsValid() {
		return nil, errors.New("invalid card type")
	}

	tag := BusinessPartnerCacheTag(cardType)
	var results []*BusinessPartner
	found, err := utils.RetrieveTaggedList(tag, &results)
	if err != nil {
		return nil, err
	}
	if found {
		return results, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Where("card_type = ?", cardType).Order("card_code").Find(&results).Error; err != nil {
		return nil, err
	}
	if err := utils.StoreTaggedList(tag, results); err != nil {
		return nil, err
	}
	return results, nil
}
