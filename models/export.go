package models

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/utils"
)

type ExportResult struct {
	ObjectKey string `json:"object_key"`
	AccessURL string `json:"access_url"`
	RowCount  int    `json:"row_count"`
}

const excelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func writeHeaderRow(f *excelize.File, sheet string, headers []string) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowIndex int, values []interface{}) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, rowIndex)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func uploadExport(ctx context.Context, prefix string, f *excelize.File, rowCount int) (*ExportResult, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	objectKey := fmt.Sprintf("exports/%s_%s_%s.xlsx", prefix, time.Now().Format("20060102"), uuid.NewString()[:8])
	if err := utils.UploadBytesToGCS(ctx, objectKey, buf.Bytes(), excelContentType); err != nil {
		return nil, err
	}
	return &ExportResult{
		ObjectKey: objectKey,
		AccessURL: utils.BuildObjectAccessURL(objectKey),
		RowCount:  rowCount,
	}, nil
}

// ExportItems writes the item master to an Excel workbook in GCS.
func ExportItems(ctx context.Context) (*ExportResult, error) {

	items, err := GetItems(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{"Item Code", "Item Name", "Group Code", "UoM Group", "Price", "Create Date", "Update Date", "Source", "Sync Status"}
	if err := writeHeaderRow(f, sheet, headers); err != nil {
		return nil, err
	}
	for i, item := range items {
		values := []interface{}{
			item.ItemCode, item.ItemName, item.ItemsGroupCode, item.UomGroupEntry,
			item.Price.String(), item.CreateDate, item.UpdateDate,
			string(item.Source), string(item.SyncStatus),
		}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return nil, err
		}
	}

	return uploadExport(ctx, "items", f, len(items))
}

// ExportBusinessPartners writes one card-type partition to an Excel workbook.
func ExportBusinessPartners(ctx context.Context, cardType CardType) (*ExportResult, error) {

	partners, err := GetBusinessPartners(ctx, cardType)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{"Card Code", "Card Type", "Card Name", "Group Code", "Currency", "Phone", "Address", "Create Date", "Update Date", "Source", "Sync Status"}
	if err := writeHeaderRow(f, sheet, headers); err != nil {
		return nil, err
	}
	for i, partner := range partners {
		values := []interface{}{
			partner.CardCode, string(partner.CardType), partner.CardName, partner.GroupCode,
			partner.Currency, partner.Phone, partner.Address,
			partner.CreateDate, partner.UpdateDate,
			string(partner.Source), string(partner.SyncStatus),
		}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return nil, err
		}
	}

	return uploadExport(ctx, "business_partners_"+string(cardType), f, len(partners))
}
