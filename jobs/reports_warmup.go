package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/vetstock-erp/vetstock/internal/reports"
)

// ReportsWarmupJob precomputes the report ranges the dashboard opens with so
// the first morning load does not pay for the aggregates.
type ReportsWarmupJob struct {
	Logger  *slog.Logger
	Reports *reports.Service
}

// NewReportsWarmupJob initialises the warmup handler.
func NewReportsWarmupJob(logger *slog.Logger, svc *reports.Service) *ReportsWarmupJob {
	return &ReportsWarmupJob{Logger: logger, Reports: svc}
}

// Handle executes the warmup.
func (j *ReportsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if err := j.Reports.Warm(ctx); err != nil {
		j.Logger.Error("reports warmup", slog.Any("error", err))
		return err
	}
	j.Logger.Info("reports warmup completed")
	return nil
}
