// Package jobs provides scheduled background tasks of the tracking component.
//
// Jobs are cron-based (github.com/robfig/cron/v3, seconds field enabled).
//
// # Available Jobs
//
// DeliveryReconcileJob runs commands.ReconcileDeliveriesCommandHandler every 15
// seconds by default ("*/15 * * * * *"). Each tick delivers records whose ETA
// reached zero, advances PREPARING records close to pickup, refreshes the rest and
// pushes stale records forward.
//
// # Usage
//
//	jobManager := jobs.NewJobManager(jobs.NewDeliveryReconcileJob(reconcileHandler, schedule, logger))
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	defer jobManager.StopAll()
//
// # Error Handling
//
// A failed tick is logged and the next tick runs as scheduled. Failed job starts
// stop any already running jobs.
package jobs
