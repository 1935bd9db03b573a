package sapsync

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/models"
)

// SyncResult is the never-throw outcome of a reconciliation run. Callers
// branch on Error; Status carries the HTTP-ish code surfaced to the trigger
// endpoint.
type SyncResult struct {
	Error         bool   `json:"error"`
	Status        int    `json:"status"`
	Message       string `json:"message"`
	RecordsSynced int    `json:"records_synced"`
	ErrorCount    int    `json:"error_count"`
}

func successResult(message string, recordsSynced int, errorCount int) SyncResult {
	return SyncResult{
		Error:         false,
		Status:        200,
		Message:       message,
		RecordsSynced: recordsSynced,
		ErrorCount:    errorCount,
	}
}

func failureResult(status int, message string) SyncResult {
	return SyncResult{
		Error:   true,
		Status:  status,
		Message: message,
	}
}

const erpDateLayout = "20060102"

// parseErpDate parses the ERP's yyyyMMdd date strings. Blank or malformed
// values report false.
func parseErpDate(s string) (time.Time, bool) {
	if len(s) != len(erpDateLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(erpDateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// rowQualifies decides whether a remote row enters the incremental upsert
// set. A row qualifies when its create date OR update date parses and falls
// strictly after the cutoff; rows where neither date parses are excluded.
// A nil cutoff (never synced) passes every parseable row.
func rowQualifies(createDate string, updateDate string, cutoff *time.Time) bool {
	created, createdOk := parseErpDate(createDate)
	updated, updatedOk := parseErpDate(updateDate)
	if !createdOk && !updatedOk {
		return false
	}
	if cutoff == nil {
		return true
	}
	if createdOk && created.After(*cutoff) {
		return true
	}
	if updatedOk && updated.After(*cutoff) {
		return true
	}
	return false
}

// raw Service Layer rows, field names as SAP returns them

type sapItemRow struct {
	ItemCode       string      `json:"ItemCode"`
	ItemName       string      `json:"ItemName"`
	ItemsGroupCode json.Number `json:"ItmsGrpCod"`
	UomGroupEntry  json.Number `json:"UgpEntry"`
	Price          json.Number `json:"Price"`
	CreateDate     string      `json:"CreateDate"`
	UpdateDate     string      `json:"UpdateDate"`
}

type sapPartnerRow struct {
	CardCode   string `json:"CardCode"`
	CardName   string `json:"CardName"`
	CardType   string `json:"CardType"`
	GroupCode  string `json:"GroupCode"`
	Currency   string `json:"Currency"`
	Phone      string `json:"Phone1"`
	Address    string `json:"Address"`
	CreateDate string `json:"CreateDate"`
	UpdateDate string `json:"UpdateDate"`
}

func decimalFromNumber(n json.Number) decimal.Decimal {
	if n == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (row sapItemRow) toModel() models.Item {
	return models.Item{
		ItemCode:       row.ItemCode,
		ItemName:       row.ItemName,
		ItemsGroupCode: row.ItemsGroupCode.String(),
		UomGroupEntry:  row.UomGroupEntry.String(),
		Price:          decimalFromNumber(row.Price),
		CreateDate:     row.CreateDate,
		UpdateDate:     row.UpdateDate,
		Source:         models.SourceSap,
		SyncStatus:     models.SyncStatusSynced,
	}
}

func (row sapPartnerRow) toModel(cardType models.CardType) models.BusinessPartner {
	return models.BusinessPartner{
		CardCode:   row.CardCode,
		CardType:   cardType,
		CardName:   row.CardName,
		GroupCode:  row.GroupCode,
		Currency:   row.Currency,
		Phone:      row.Phone,
		Address:    row.Address,
		CreateDate: row.CreateDate,
		UpdateDate: row.UpdateDate,
		Source:     models.SourceSap,
		SyncStatus: models.SyncStatusSynced,
	}
}
