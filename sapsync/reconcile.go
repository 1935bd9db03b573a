package sapsync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/config"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/models"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/utils"
)

const moduleName = "sapsync"

var tracer trace.Tracer = otel.Tracer("sapsync")

// Reconcile runs one fetch-compare-upsert pass for a sync domain and never
// returns an error: every outcome is folded into the SyncResult.
//
// The three reads (remote rows, local row count, sync metadata) run
// concurrently and all settle before the outcome is decided. A remote fetch
// failure aborts the run; local and metadata read failures degrade to the
// never-synced defaults. All writes, including the LastSyncAt advance, commit
// in a single transaction; the domain's cached list is invalidated after
// commit.
func Reconcile(ctx context.Context, domain string, runId uint) (result SyncResult) {
	logger := config.GetLogger()

	defer func() {
		if r := recover(); r != nil {
			config.LogError(logger, moduleName, "Reconcile", "panic during reconciliation", domain, fmt.Errorf("panic: %v", r))
			result = failureResult(500, "internal error during sync")
		}
	}()

	if !models.IsValidSyncDomain(domain) {
		return failureResult(400, "unknown sync domain: "+domain)
	}

	// one run in flight per domain
	lock, err := utils.DomainLock(ctx, domain, 10*time.Minute, moduleName, "Reconcile")
	if err != nil {
		return failureResult(409, err.Error())
	}
	defer lock.Release(ctx)

	ctx, span := tracer.Start(ctx, "sapsync.reconcile")
	span.SetAttributes(attribute.String("sync.domain", domain))
	defer span.End()

	client, err := newServiceLayerClient()
	if err != nil {
		config.LogError(logger, moduleName, "Reconcile", "service layer client init failed", domain, err)
		return failureResult(500, err.Error())
	}

	syncAt := time.Now()
	queryName, filter := queryForDomain(domain)

	// all three fetches settle independently
	var (
		wg         sync.WaitGroup
		remoteRows []json.RawMessage
		remoteErr  error
		localCount int64
		localErr   error
		meta       *models.SyncMeta
		metaErr    error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		remoteRows, remoteErr = client.QueryList(ctx, queryName, filter)
	}()
	go func() {
		defer wg.Done()
		localCount, localErr = countLocal(ctx, domain)
	}()
	go func() {
		defer wg.Done()
		meta, metaErr = models.GetSyncMeta(ctx, domain)
	}()
	wg.Wait()

	if remoteErr != nil {
		config.LogError(logger, moduleName, "Reconcile", "remote fetch failed", domain, remoteErr)
		return failureResult(502, "failed to fetch remote master data: "+remoteErr.Error())
	}
	if localErr != nil {
		// degrade; the unique index stops a wrong bulk import over existing rows
		config.LogError(logger, moduleName, "Reconcile", "local row count failed, treating as empty", domain, localErr)
		localCount = 0
	}
	var cutoff *time.Time
	if metaErr != nil {
		// degrade to never-synced: every parseable row qualifies
		config.LogError(logger, moduleName, "Reconcile", "sync meta read failed, treating as never synced", domain, metaErr)
	} else if meta != nil {
		cutoff = meta.LastSyncAt
	}

	bulk := localCount == 0

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	var synced, softErrors int
	if domain == models.SyncDomainItem {
		synced, softErrors, err = applyItems(ctx, tx, remoteRows, bulk, cutoff, runId)
	} else {
		synced, softErrors, err = applyPartners(ctx, tx, remoteRows, models.CardTypeForDomain(domain), bulk, cutoff, runId)
	}
	if err != nil {
		tx.Rollback()
		config.LogError(logger, moduleName, "Reconcile", "applying remote rows failed", domain, err)
		return failureResult(500, "failed to apply remote master data: "+err.Error())
	}

	updatedBy, _ := utils.GetUsernameFromContext(ctx)
	if updatedBy == "" {
		updatedBy = "system"
	}
	if err := models.UpsertSyncMetaTx(ctx, tx, domain, syncAt, updatedBy); err != nil {
		tx.Rollback()
		config.LogError(logger, moduleName, "Reconcile", "updating sync meta failed", domain, err)
		return failureResult(500, "failed to update sync metadata: "+err.Error())
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(logger, moduleName, "Reconcile", "commit failed", domain, err)
		return failureResult(500, "failed to commit sync transaction: "+err.Error())
	}

	// cached reads recompute on next access
	if err := utils.InvalidateTag(models.CacheTagForDomain(domain)); err != nil {
		config.LogError(logger, moduleName, "Reconcile", "cache invalidation failed", domain, err)
	}

	mode := "incremental"
	if bulk {
		mode = "bulk"
	}
	span.SetAttributes(attribute.Int("sync.records", synced), attribute.String("sync.mode", mode))
	return successResult(fmt.Sprintf("%s sync completed (%s): %d record(s)", domain, mode, synced), synced, softErrors)
}

func countLocal(ctx context.Context, domain string) (int64, error) {
	if domain == models.SyncDomainItem {
		return utils.ResourceCountWhere[models.Item](ctx, "1 = 1")
	}
	return utils.ResourceCountWhere[models.BusinessPartner](ctx, "card_type = ?", models.CardTypeForDomain(domain))
}

func recordSoftError(ctx context.Context, runId uint, entityType string, naturalKey string, errorCode string, message string) {
	if runId == 0 {
		return
	}
	// written outside the sync transaction so the record survives a rollback
	if err := models.RecordSyncError(ctx, runId, entityType, naturalKey, errorCode, message); err != nil {
		config.LogError(config.GetLogger(), moduleName, "recordSoftError", "failed to persist sync error", naturalKey, err)
	}
}

func applyItems(ctx context.Context, tx *gorm.DB, rows []json.RawMessage, bulk bool, cutoff *time.Time, runId uint) (int, int, error) {

	if bulk {
		var items []models.Item
		soft := 0
		for _, raw := range rows {
			var row sapItemRow
			if err := json.Unmarshal(raw, &row); err != nil || row.ItemCode == "" {
				soft++
				recordSoftError(ctx, runId, "item", row.ItemCode, "decode_failed", string(raw))
				continue
			}
			items = append(items, row.toModel())
		}
		if len(items) > 0 {
			if err := tx.CreateInBatches(&items, 200).Error; err != nil {
				return 0, soft, err
			}
		}
		return len(items), soft, nil
	}

	synced, soft := 0, 0
	for _, raw := range rows {
		var row sapItemRow
		if err := json.Unmarshal(raw, &row); err != nil || row.ItemCode == "" {
			soft++
			recordSoftError(ctx, runId, "item", row.ItemCode, "decode_failed", string(raw))
			continue
		}
		if !rowQualifies(row.CreateDate, row.UpdateDate, cutoff) {
			continue
		}
		item := row.toModel()
		// full overwrite by natural key
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "item_code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"item_name", "items_group_code", "uom_group_entry", "price",
				"create_date", "update_date", "source", "sync_status", "updated_at",
			}),
		}).Create(&item).Error
		if err != nil {
			return synced, soft, err
		}
		synced++
	}
	return synced, soft, nil
}

func applyPartners(ctx context.Context, tx *gorm.DB, rows []json.RawMessage, cardType models.CardType, bulk bool, cutoff *time.Time, runId uint) (int, int, error) {

	if bulk {
		var partners []models.BusinessPartner
		soft := 0
		for _, raw := range rows {
			var row sapPartnerRow
			if err := json.Unmarshal(raw, &row); err != nil || row.CardCode == "" {
				soft++
				recordSoftError(ctx, runId, "business_partner", row.CardCode, "decode_failed", string(raw))
				continue
			}
			partners = append(partners, row.toModel(cardType))
		}
		if len(partners) > 0 {
			if err := tx.CreateInBatches(&partners, 200).Error; err != nil {
				return 0, soft, err
			}
		}
		return len(partners), soft, nil
	}

	synced, soft := 0, 0
	for _, raw := range rows {
		var row sapPartnerRow
		if err := json.Unmarshal(raw, &row); err != nil || row.CardCode == "" {
			soft++
			recordSoftError(ctx, runId, "business_partner", row.CardCode, "decode_failed", string(raw))
			continue
		}
		if !rowQualifies(row.CreateDate, row.UpdateDate, cutoff) {
			continue
		}
		partner := row.toModel(cardType)
		// full overwrite by natural key
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "card_code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"card_name", "card_type", "group_code", "currency", "phone", "address",
				"create_date", "update_date", "source", "sync_status", "updated_at",
			}),
		}).Create(&partner).Error
		if err != nil {
			return synced, soft, err
		}
		synced++
	}
	return synced, soft, nil
}
