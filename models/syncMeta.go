package models

import (
	"context"
	"time"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/config"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/utils"
	"gorm.io/gorm"
)

// SyncMeta holds the last successful reconciliation time per sync domain.
// LastSyncAt nil means the domain has never synced; the value only moves
// forward and is written as the final statement of a successful run's
// transaction.
type SyncMeta struct {
	ID         int        `gorm:"primary_key" json:"id"`
	Code       string     `gorm:"uniqueIndex;size:20;not null" json:"code"`
	LastSyncAt *time.Time `json:"last_sync_at"`
	UpdatedBy  string     `gorm:"size:100" json:"updated_by"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// SyncRun is the per-invocation bookkeeping record behind the trigger,
// history and retry endpoints.
type SyncRun struct {
	ID            uint       `gorm:"primary_key" json:"id"`
	Domain        string     `gorm:"index;size:20;not null" json:"domain"`
	Status        string     `gorm:"size:20;not null" json:"status"`
	TriggeredBy   string     `gorm:"size:20" json:"triggered_by"`
	RequestedBy   string     `gorm:"size:100" json:"requested_by"`
	RecordsSynced int        `json:"records_synced"`
	ErrorCount    int        `json:"error_count"`
	Message       string     `gorm:"type:text" json:"message"`
	ParentRunId   *uint      `gorm:"index" json:"parent_run_id"`
	StartedAt     *time.Time `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
	DurationMs    int64      `json:"duration_ms"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// SyncError records a per-row soft failure observed during a run.
type SyncError struct {
	ID         uint      `gorm:"primary_key" json:"id"`
	SyncRunId  uint      `gorm:"index;not null" json:"sync_run_id"`
	EntityType string    `gorm:"size:50" json:"entity_type"`
	NaturalKey string    `gorm:"size:128" json:"natural_key"`
	ErrorCode  string    `gorm:"size:64" json:"error_code"`
	Message    string    `gorm:"type:text" json:"message"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// GetSyncMeta returns the domain's metadata row, nil when the domain has
// never synced and no row exists yet.
func GetSyncMeta(ctx context.Context, domain string) (*SyncMeta, error) {
	meta, err := utils.FetchModelWhere[SyncMeta](ctx, "code = ?", domain)
	if err != nil {
		if err == utils.ErrorRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return meta, nil
}

func GetAllSyncMeta(ctx context.Context) ([]*SyncMeta, error) {
	db := config.GetDB()
	var results []*SyncMeta
	if err := db.WithContext(ctx).Order("code").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// UpsertSyncMetaTx writes the domain's LastSyncAt inside the caller's
// transaction. Existing rows only move forward.
func UpsertSyncMetaTx(ctx context.Context, tx *gorm.DB, domain string, syncAt time.Time, updatedBy string) error {
	var meta SyncMeta
	err := tx.WithContext(ctx).Where("code = ?", domain).First(&meta).Error
	if err == gorm.ErrRecordNotFound {
		meta = SyncMeta{
			Code:       domain,
			LastSyncAt: &syncAt,
			UpdatedBy:  updatedBy,
		}
		return tx.WithContext(ctx).Create(&meta).Error
	}
	if err != nil {
		return err
	}
	if meta.LastSyncAt != nil && !syncAt.After(*meta.LastSyncAt) {
		// monotonic, never move back
		return nil
	}
	return tx.WithContext(ctx).Model(&meta).Updates(map[string]interface{}{
		"LastSyncAt": &syncAt,
		"UpdatedBy":  updatedBy,
	}).Error
}

func CreateSyncRun(ctx context.Context, domain string, triggeredBy string, requestedBy string, parentRunId *uint) (*SyncRun, error) {
	run := SyncRun{
		Domain:      domain,
		Status:      SyncRunStatusQueued,
		TriggeredBy: triggeredBy,
		RequestedBy: requestedBy,
		ParentRunId: parentRunId,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func (run *SyncRun) MarkRunning(ctx context.Context) error {
	db := config.GetDB()
	now := time.Now()
	return db.WithContext(ctx).Model(run).Updates(map[string]interface{}{
		"Status":    SyncRunStatusRunning,
		"StartedAt": &now,
	}).Error
}

func (run *SyncRun) Finish(ctx context.Context, status string, recordsSynced int, errorCount int, message string) error {
	db := config.GetDB()
	now := time.Now()
	var durationMs int64
	if run.StartedAt != nil {
		durationMs = now.Sub(*run.StartedAt).Milliseconds()
	}
	return db.WithContext(ctx).Model(run).Updates(map[string]interface{}{
		"Status":        status,
		"RecordsSynced": recordsSynced,
		"ErrorCount":    errorCount,
		"Message":       message,
		"FinishedAt":    &now,
		"DurationMs":    durationMs,
	}).Error
}

func RecordSyncError(ctx context.Context, runId uint, entityType string, naturalKey string, errorCode string, message string) error {
	db := config.GetDB()
	syncErr := SyncError{
		SyncRunId:  runId,
		EntityType: entityType,
		NaturalKey: naturalKey,
		ErrorCode:  errorCode,
		Message:    message,
	}
	return db.WithContext(ctx).Create(&syncErr).Error
}

func GetSyncRun(ctx context.Context, id uint) (*SyncRun, error) {
	return utils.FetchModel[SyncRun](ctx, int(id))
}

func GetSyncRuns(ctx context.Context, domain string, limit int) ([]*SyncRun, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if domain != "" {
		dbCtx = dbCtx.Where("domain = ?", domain)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var results []*SyncRun
	if err := dbCtx.Order("id DESC").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func GetSyncErrors(ctx context.Context, runId uint) ([]*SyncError, error) {
	db := config.GetDB()
	var results []*SyncError
	if err := db.WithContext(ctx).Where("sync_run_id = ?", runId).Order("id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
