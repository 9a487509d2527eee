// Package jobs holds the background task definitions and the Asynq worker
// that runs them: inventory repost retries, expiry scans, report warmup and
// idempotency key cleanup.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskInventoryRepost retries lot posting for a delivery whose first
	// post failed. A zero delivery id means drain every pending post.
	TaskInventoryRepost = "inventory:repost"
	// TaskExpiryScan looks for lots expiring inside the warning window.
	TaskExpiryScan = "inventory:expiry_scan"
	// TaskReportsWarmup precomputes the dashboard's report ranges.
	TaskReportsWarmup = "reports:warmup"
	// TaskIdempotencyCleanup prunes old idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// InventoryRepostPayload identifies the delivery to repost.
type InventoryRepostPayload struct {
	DeliveryID int64 `json:"delivery_id"`
}

// NewInventoryRepostTask constructs an Asynq task.
func NewInventoryRepostTask(payload InventoryRepostPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInventoryRepost, data), nil
}

// ExpiryScanPayload bounds the expiry warning window.
type ExpiryScanPayload struct {
	Window time.Duration `json:"window"`
}

// NewExpiryScanTask constructs an Asynq task.
func NewExpiryScanTask(payload ExpiryScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskExpiryScan, data), nil
}

// NewReportsWarmupTask constructs an Asynq task.
func NewReportsWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskReportsWarmup, nil)
}

// IdempotencyCleanupPayload carries the retention window.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewIdempotencyCleanupTask constructs an Asynq task.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
