package models

import (
	"context"
	"time"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/config"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/utils"
)

type Module struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Actions   string    `gorm:"not null" json:"actions" binding:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewModule struct {
	Name    string `json:"name" binding:"required"`
	Actions string `json:"actions" binding:"required"`
}

// get ids of roles related to this module / have access
func (module *Module) getRelatedRoleIds(ctx context.Context) ([]int, error) {
	var roleIds []int
	db := config.GetDB()

	err := db.WithContext(ctx).Model(&RoleModule{}).Select("role_id").
		Where("module_id = ?", module.ID).Scan(&roleIds).Error
	if err != nil {
		return nil, err
	}
	return roleIds, nil
}

func (input *NewModule) validate(ctx context.Context, id int) error {
	// name
	if err := utils.ValidateUnique[Module](ctx, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func CreateModule(ctx context.Context, input *NewModule) (*Module, error) {

	// ONLY ADMIN can access
	db := config.GetDB()

	// validate module name
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	module := Module{
		Name:    input.Name,
		Actions: input.Actions,
	}

	err := db.WithContext(ctx).Create(&module).Error
	if err != nil {
		return nil, err
	}
	return &module, nil
}

func UpdateModule(ctx context.Context, id int, input *NewModule) (*Module, error) {

	// only admin can access
	db := config.GetDB()
	// check exists
	if err := utils.ValidateResourceId[Module](ctx, id); err != nil {
		return nil, err
	}

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	module := Module{
		ID:      id,
		Name:    input.Name,
		Actions: input.Actions,
	}

	// update the module
	tx := db.Begin()
	err := tx.WithContext(ctx).Model(&module).Updates(map[string]interface{}{
		"Name":    input.Name,
		"Actions": input.Actions,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// get role ids related to / have access to module
	roleIds, err := module.getRelatedRoleIds(ctx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	// remove from redis
	for _, roleId := range roleIds {
		if err := utils.ClearPathsCache(roleId); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	return &module, tx.Commit().Error
}

func DeleteModule(ctx context.Context, id int) (*Module, error) {

	// only admin can access
	db := config.GetDB()
	var result Module

	err := db.WithContext(ctx).First(&result, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	// delete module
	tx := db.Begin()
	err = tx.WithContext(ctx).Delete(&result).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// get related role ids
	roleIds, err := result.getRelatedRoleIds(ctx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// Delete role module
	err = tx.WithContext(ctx).Where("module_id = ?", id).Delete(&RoleModule{}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// remove from redis
	for _, roleId := range roleIds {
		if err := utils.ClearPathsCache(roleId); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	return &result, tx.Commit().Error
}

func GetModule(ctx context.Context, id int) (*Module, error) {

	db := config.GetDB()
	var result Module

	err := db.WithContext(ctx).First(&result, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

func GetModules(ctx context.Context) ([]*Module, error) {

	db := config.GetDB()
	var results []*Module
	if err := db.WithContext(ctx).Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
