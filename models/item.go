package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/config"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/utils"
)

// Item is the item master record. Rows with Source "sap" are owned by the
// ERP reconciliation and fully overwritten on upsert; portal rows are never
// touched by it. CreateDate/UpdateDate carry the ERP yyyyMMdd strings verbatim.
type Item struct {
	ID             int             `gorm:"primary_key" json:"id"`
	ItemCode       string          `gorm:"uniqueIndex;size:50;not null" json:"item_code" binding:"required"`
	ItemName       string          `gorm:"size:255" json:"item_name"`
	ItemsGroupCode string          `gorm:"size:20" json:"items_group_code"`
	UomGroupEntry  string          `gorm:"size:20" json:"uom_group_entry"`
	Price          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price"`
	CreateDate     string          `gorm:"size:8" json:"create_date"`
	UpdateDate     string          `gorm:"size:8" json:"update_date"`
	Source         SourceType      `gorm:"type:enum('sap','portal');default:'portal'" json:"source"`
	SyncStatus     SyncStatus      `gorm:"type:enum('synced','pending','error');default:'pending'" json:"sync_status"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewItem struct {
	ItemCode       string          `json:"item_code" binding:"required"`
	ItemName       string          `json:"item_name" binding:"required"`
	ItemsGroupCode string          `json:"items_group_code"`
	UomGroupEntry  string          `json:"uom_group_entry"`
	Price          decimal.Decimal `json:"price"`
}

const ItemCacheTag = "item-master"

// invalidation runs only after the write is committed; dropping the tag
// earlier lets a concurrent list read re-cache the pre-commit rows
func invalidateItemCache(funcName string) {
	if err := utils.InvalidateTag(ItemCacheTag); err != nil {
		config.LogError(config.GetLogger(), "item", funcName, "cache invalidation failed", nil, err)
	}
}

func (input *NewItem) validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Item](ctx, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Item](ctx, "item_code", input.ItemCode, id); err != nil {
		return err
	}
	return nil
}

// portal-side creation; sync-owned rows come in through the reconciliation
func CreateItem(ctx context.Context, input *NewItem) (*Item, error) {

	input.ItemCode = strings.TrimSpace(input.ItemCode)
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	item := Item{
		ItemCode:       input.ItemCode,
		ItemName:       input.ItemName,
		ItemsGroupCode: input.ItemsGroupCode,
		UomGroupEntry:  input.UomGroupEntry,
		Price:          input.Price,
		Source:         SourcePortal,
		SyncStatus:     SyncStatusPending,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&item).Error; err != nil {
		// validate() races with concurrent creates; the unique index is the authority
		if utils.IsDuplicateEntryErr(err) {
			return nil, errors.New("item_code already exists")
		}
		return nil, err
	}
	invalidateItemCache("CreateItem")
	return &item, nil
}

func UpdateItem(ctx context.Context, id int, input *NewItem) (*Item, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	item, err := utils.FetchModel[Item](ctx, id)
	if err != nil {
		return nil, err
	}
	if item.Source == SourceSap {
		return nil, errors.New("sap-owned item cannot be edited")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&item).Updates(map[string]interface{}{
		"ItemCode":       input.ItemCode,
		"ItemName":       input.ItemName,
		"ItemsGroupCode": input.ItemsGroupCode,
		"UomGroupEntry":  input.UomGroupEntry,
		"Price":          input.Price,
	}).Error
	if err != nil {
		return nil, err
	}
	invalidateItemCache("UpdateItem")
	return item, nil
}

func DeleteItem(ctx context.Context, id int) (*Item, error) {

	item, err := utils.FetchModel[Item](ctx, id)
	if err != nil {
		return nil, err
	}
	if item.Source == SourceSap {
		return nil, errors.New("sap-owned item cannot be deleted")
	}

	count, err := utils.ResourceCountWhere[RequisitionLine](ctx, "item_code = ?", item.ItemCode)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("item is used in a requisition")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(&item).Error; err != nil {
		return nil, err
	}
	invalidateItemCache("DeleteItem")
	return item, nil
}

func GetItem(ctx context.Context, id int) (*Item, error) {
	return utils.FetchModel[Item](ctx, id)
}

func GetItemByCode(ctx context.Context, itemCode string) (*Item, error) {
	return utils.FetchModelWhere[Item](ctx, "item_code = ?", itemCode)
}

// GetItems serves the item master list through the tagged cache. The
// reconciliation drops the tag after a committed run so the next read
// recomputes from the database.
func GetItems(ctx context.Context) ([]*Item, error) {

	var results []*Item
	found, err := utils.RetrieveTaggedList(ItemCacheTag, &results)
	if err != nil {
		return nil, err
	}
	if found {
		return results, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Order("item_code").Find(&results).Error; err != nil {
		return nil, err
	}
	if err := utils.StoreTaggedList(ItemCacheTag, results); err != nil {
		return nil, err
	}
	return results, nil
}
