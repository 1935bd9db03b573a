package models

import "time"

type RoleModule struct {
	ID             int       `gorm:"primary_key" json:"id"`
	RoleId         int       `gorm:"index;not null" json:"role_id"`
	ModuleId       int       `gorm:"index;not null" json:"module_id"`
	Module         Module    `gorm:"foreignKey:ModuleId" json:"module"`
	AllowedActions string    `gorm:"not null" json:"allowed_actions"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
