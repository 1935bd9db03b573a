package models

import (
	"log"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Attachment{},
		&BusinessPartner{},
		&Item{},
		&Lead{},
		&Module{},
		&Quotation{}, &QuotationLine{},
		&Requisition{}, &RequisitionLine{},
		&Role{}, &RoleModule{},
		&SyncError{}, &SyncMeta{}, &SyncRun{},
		&User{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
