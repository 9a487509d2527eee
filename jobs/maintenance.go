package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vetstock-erp/vetstock/internal/shared"
)

// defaultIdempotencyRetention keeps keys long enough for any conceivable
// retry to land on the conflict path.
const defaultIdempotencyRetention = 30 * 24 * time.Hour

// IdempotencyCleanupJob prunes processed idempotency keys past retention.
type IdempotencyCleanupJob struct {
	Logger *slog.Logger
	Store  *shared.IdempotencyStore
}

// NewIdempotencyCleanupJob initialises the cleanup handler.
func NewIdempotencyCleanupJob(logger *slog.Logger, store *shared.IdempotencyStore) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{Logger: logger, Store: store}
}

// Handle executes the cleanup.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload IdempotencyCleanupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	retention := payload.Retention
	if retention <= 0 {
		retention = defaultIdempotencyRetention
	}
	if err := j.Store.Cleanup(ctx, retention); err != nil {
		j.Logger.Error("idempotency cleanup", slog.Any("error", err))
		return err
	}
	j.Logger.Info("idempotency cleanup completed", slog.Duration("retention", retention))
	return nil
}
