package jobs

import (
	"context"
	"log/slog"

	"fooddelivery/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// DefaultReconcileSchedule runs the reconciler every 15 seconds.
const DefaultReconcileSchedule = "*/15 * * * * *"

// Reconciler is satisfied by commands.ReconcileDeliveriesCommandHandler.
type Reconciler interface {
	Handle(ctx context.Context) (commands.ReconcileResult, error)
}

// DeliveryReconcileJob moves active deliveries forward on a schedule.
// A tick still running when the next one fires makes the next one skip.
type DeliveryReconcileJob struct {
	handler  Reconciler
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewDeliveryReconcileJob creates the job. An empty schedule uses DefaultReconcileSchedule.
func NewDeliveryReconcileJob(handler Reconciler, schedule string, logger *slog.Logger) *DeliveryReconcileJob {
	if schedule == "" {
		schedule = DefaultReconcileSchedule
	}
	return &DeliveryReconcileJob{
		handler:  handler,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:   logger.With("component", "delivery_reconcile_job"),
	}
}

func (j *DeliveryReconcileJob) Name() string {
	return "delivery reconcile"
}

// Start schedules the job. Returns an error for an invalid schedule.
func (j *DeliveryReconcileJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.Tick(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Delivery reconcile job started", "schedule", j.schedule)
	return nil
}

// Tick runs one reconciliation pass.
func (j *DeliveryReconcileJob) Tick(ctx context.Context) {
	result, err := j.handler.Handle(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Delivery reconcile job failed", "error", err)
	}

	if result.Delivered+result.Advanced+result.Refreshed+result.Stale > 0 {
		j.logger.DebugContext(ctx, "Deliveries reconciled",
			"delivered", result.Delivered, "advanced", result.Advanced,
			"refreshed", result.Refreshed, "stale", result.Stale)
	}
}

// Stop waits for a running tick to finish.
func (j *DeliveryReconcileJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Delivery reconcile job stopped")
}
