package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vetstock-erp/vetstock/internal/inventory"
	"github.com/vetstock-erp/vetstock/internal/shared"
)

// Broadcaster pushes events to connected clients.
type Broadcaster interface {
	Broadcast(event string, payload any)
}

// AuditRecorder writes audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry shared.AuditLog) error
}

// ExpiryScanJob warns about lots approaching their expiry date so stock can
// be rotated out before it is worthless.
type ExpiryScanJob struct {
	Logger    *slog.Logger
	Inventory *inventory.Service
	Notify    Broadcaster
	Audit     AuditRecorder
	Window    time.Duration
}

// NewExpiryScanJob initialises the expiry scan handler.
func NewExpiryScanJob(logger *slog.Logger, inv *inventory.Service, notify Broadcaster, audit AuditRecorder, window time.Duration) *ExpiryScanJob {
	return &ExpiryScanJob{Logger: logger, Inventory: inv, Notify: notify, Audit: audit, Window: window}
}

// Handle executes the scan.
func (j *ExpiryScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ExpiryScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	window := payload.Window
	if window <= 0 {
		window = j.Window
	}

	lots, err := j.Inventory.ExpiringLots(ctx, window)
	if err != nil {
		j.Logger.Error("expiry scan", slog.Any("error", err))
		return err
	}
	j.Logger.Info("expiry scan", slog.Int("expiring", len(lots)), slog.Duration("window", window))
	if len(lots) == 0 {
		return nil
	}

	if j.Notify != nil {
		j.Notify.Broadcast("inventory.expiring", map[string]any{
			"count":  len(lots),
			"window": window.String(),
			"lots":   lots,
		})
	}
	if j.Audit != nil {
		_ = j.Audit.Record(ctx, shared.AuditLog{
			Action:   "inventory.expiry_warning",
			Entity:   "inventory",
			EntityID: fmt.Sprintf("scan-%d", time.Now().Unix()),
			Meta:     map[string]any{"count": len(lots), "window": window.String()},
		})
	}
	return nil
}
