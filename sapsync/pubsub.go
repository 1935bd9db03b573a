package sapsync

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"cloud.google.com/go/pubsub"
	"github.com/gin-gonic/gin"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/config"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/models"
)

type SyncPubSubPayload struct {
	RunId  uint   `json:"run_id"`
	Domain string `json:"domain"`
}

func syncTopicName() string {
	if v := strings.TrimSpace(os.Getenv("SAP_SYNC_TOPIC")); v != "" {
		return v
	}
	return "sap-sync-runs"
}

// PublishSyncRun queues a run for the push worker.
func PublishSyncRun(ctx context.Context, run *models.SyncRun) error {
	client, err := config.GetClient(ctx)
	if err != nil {
		return err
	}
	topic, err := config.CreateTopicIfNotExists(client, syncTopicName())
	if err != nil {
		return err
	}

	data, err := json.Marshal(SyncPubSubPayload{RunId: run.ID, Domain: run.Domain})
	if err != nil {
		return err
	}
	result := topic.Publish(ctx, &pubsub.Message{Data: data})
	_, err = result.Get(ctx)
	return err
}

// push delivery envelope
type pushEnvelope struct {
	Message struct {
		Data      []byte `json:"data"`
		MessageId string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// POST /pubsub/sap-sync
//
// Responds 200 to ack. Malformed payloads are acked and logged so they don't
// redeliver forever; only transient lookup failures return 5xx for retry.
func PubSubPushHandler(c *gin.Context) {
	ctx := c.Request.Context()
	logger := config.GetLogger()

	var envelope pushEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		config.LogError(logger, moduleName, "PubSubPushHandler", "invalid push envelope", "", err)
		c.JSON(http.StatusOK, gin.H{"status": "discarded"})
		return
	}

	var payload SyncPubSubPayload
	if err := json.Unmarshal(envelope.Message.Data, &payload); err != nil || payload.RunId == 0 {
		config.LogError(logger, moduleName, "PubSubPushHandler", "invalid run payload", string(envelope.Message.Data), err)
		c.JSON(http.StatusOK, gin.H{"status": "discarded"})
		return
	}

	run, err := models.GetSyncRun(ctx, payload.RunId)
	if err != nil {
		// could be a delivery racing the insert; let Pub/Sub retry
		c.JSON(http.StatusInternalServerError, gin.H{"error": "run not found yet"})
		return
	}
	if run.Status == models.SyncRunStatusSuccess || run.Status == models.SyncRunStatusFailed {
		// duplicate delivery of a finished run
		c.JSON(http.StatusOK, gin.H{"status": run.Status})
		return
	}

	result := ProcessRun(ctx, run)
	c.JSON(http.StatusOK, gin.H{"run_id": run.ID, "result": result})
}
