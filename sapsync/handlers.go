package sapsync

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/config"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/models"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/utils"
)

// ProcessRun executes a queued run end to end and records its outcome.
func ProcessRun(ctx context.Context, run *models.SyncRun) SyncResult {
	logger := config.GetLogger()

	if err := run.MarkRunning(ctx); err != nil {
		config.LogError(logger, moduleName, "ProcessRun", "failed to mark run running", run.Domain, err)
		return failureResult(500, "failed to start sync run")
	}

	result := Reconcile(ctx, run.Domain, run.ID)

	status := models.SyncRunStatusSuccess
	if result.Error {
		status = models.SyncRunStatusFailed
	}
	if err := run.Finish(ctx, status, result.RecordsSynced, result.ErrorCount, result.Message); err != nil {
		config.LogError(logger, moduleName, "ProcessRun", "failed to finish run", run.Domain, err)
	}
	return result
}

func dispatchRun(c *gin.Context, run *models.SyncRun) {
	ctx := c.Request.Context()

	if config.SyncInlineFallback() {
		result := ProcessRun(ctx, run)
		c.JSON(result.Status, gin.H{"run_id": run.ID, "result": result})
		return
	}

	if err := PublishSyncRun(ctx, run); err != nil {
		config.LogError(config.GetLogger(), moduleName, "dispatchRun", "failed to publish run", run.Domain, err)
		_ = run.Finish(ctx, models.SyncRunStatusFailed, 0, 0, "failed to queue sync run: "+err.Error())
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to queue sync run"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"run_id": run.ID, "status": models.SyncRunStatusQueued})
}

// POST /api/sap/sync/:domain
func TriggerSyncHandler(c *gin.Context) {
	ctx := c.Request.Context()
	domain := c.Param("domain")

	if !models.IsValidSyncDomain(domain) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown sync domain: " + domain})
		return
	}
	if !config.SyncDomainAllowed(domain) {
		c.JSON(http.StatusForbidden, gin.H{"error": "sync domain is disabled: " + domain})
		return
	}

	requestedBy, _ := utils.GetUsernameFromContext(ctx)
	run, err := models.CreateSyncRun(ctx, domain, models.SyncTriggeredManual, requestedBy, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	dispatchRun(c, run)
}

// POST /internal/schedule/sap-sync/:domain
// Cloud Scheduler entry point; authenticated by service JWT, not a session.
func ScheduleSyncHandler(c *gin.Context) {
	ctx := c.Request.Context()
	domain := c.Param("domain")

	if !models.IsValidSyncDomain(domain) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown sync domain: " + domain})
		return
	}
	if !config.SyncDomainAllowed(domain) {
		c.JSON(http.StatusForbidden, gin.H{"error": "sync domain is disabled: " + domain})
		return
	}

	requestedBy, _ := utils.GetUsernameFromContext(ctx)
	if requestedBy == "" {
		requestedBy = "scheduler"
	}
	run, err := models.CreateSyncRun(ctx, domain, models.SyncTriggeredSchedule, requestedBy, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	dispatchRun(c, run)
}

// GET /api/sap/sync/runs
func ListSyncRunsHandler(c *gin.Context) {
	ctx := c.Request.Context()

	domain := c.Query("domain")
	if domain != "" && !models.IsValidSyncDomain(domain) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown sync domain: " + domain})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	runs, err := models.GetSyncRuns(ctx, domain, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GET /api/sap/sync/runs/:id
func GetSyncRunHandler(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}
	run, err := models.GetSyncRun(ctx, uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	syncErrors, err := models.GetSyncErrors(ctx, run.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "errors": syncErrors})
}

// POST /api/sap/sync/runs/:id/retry
func RetrySyncRunHandler(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}
	parent, err := models.GetSyncRun(ctx, uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if parent.Status != models.SyncRunStatusFailed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only failed runs can be retried"})
		return
	}

	requestedBy, _ := utils.GetUsernameFromContext(ctx)
	parentId := parent.ID
	run, err := models.CreateSyncRun(ctx, parent.Domain, models.SyncTriggeredRetry, requestedBy, &parentId)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	dispatchRun(c, run)
}

// GET /api/sap/sync/meta
func SyncMetaHandler(c *gin.Context) {
	ctx := c.Request.Context()

	metas, err := models.GetAllSyncMeta(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// domains that never synced still show up, with a null timestamp
	byCode := make(map[string]*models.SyncMeta, len(metas))
	for _, m := range metas {
		byCode[m.Code] = m
	}
	out := make([]gin.H, 0, 4)
	for _, domain := range models.AllSyncDomains() {
		if m, ok := byCode[domain]; ok {
			out = append(out, gin.H{"code": m.Code, "last_sync_at": m.LastSyncAt, "updated_by": m.UpdatedBy})
		} else {
			out = append(out, gin.H{"code": domain, "last_sync_at": nil, "updated_by": ""})
		}
	}
	c.JSON(http.StatusOK, gin.H{"meta": out})
}
