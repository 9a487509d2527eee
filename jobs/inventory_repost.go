package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/vetstock-erp/vetstock/internal/delivery"
)

// InventoryRepostJob retries lot posting for deliveries whose first post
// failed. The inventory side is idempotent, so a retry that raced a
// successful post is harmless.
type InventoryRepostJob struct {
	Logger     *slog.Logger
	Deliveries *delivery.Service
}

// NewInventoryRepostJob initialises the repost handler.
func NewInventoryRepostJob(logger *slog.Logger, deliveries *delivery.Service) *InventoryRepostJob {
	return &InventoryRepostJob{Logger: logger, Deliveries: deliveries}
}

// Handle executes the repost. A payload naming a delivery retries that one;
// an empty payload drains everything still pending.
func (j *InventoryRepostJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload InventoryRepostPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	if payload.DeliveryID > 0 {
		return j.repost(ctx, payload.DeliveryID)
	}

	ids, err := j.Deliveries.PendingInventoryPosts(ctx, 100)
	if err != nil {
		return err
	}
	var failed int
	for _, id := range ids {
		if err := j.repost(ctx, id); err != nil {
			failed++
		}
	}
	j.Logger.Info("inventory repost sweep",
		slog.Int("pending", len(ids)),
		slog.Int("failed", failed),
	)
	if failed > 0 {
		return errors.New("inventory repost: some deliveries still pending")
	}
	return nil
}

func (j *InventoryRepostJob) repost(ctx context.Context, id int64) error {
	_, err := j.Deliveries.RepostInventory(ctx, id)
	if err == nil {
		j.Logger.Info("inventory repost succeeded", slog.Int64("delivery_id", id))
		return nil
	}
	// Another worker or a manual retry got there first.
	if errors.Is(err, delivery.ErrInventoryPosted) {
		return nil
	}
	j.Logger.Error("inventory repost failed", slog.Int64("delivery_id", id), slog.Any("error", err))
	return err
}
