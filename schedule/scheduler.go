package schedule

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/records_backend/config"
	"bitbucket.org/mmdatafocus/records_backend/jobs"
	"bitbucket.org/mmdatafocus/records_backend/notify"
	"bitbucket.org/mmdatafocus/records_backend/utils"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler owns the recurring maintenance work: report generation, status
// sweeps, digests and artifact cleanup.
type Scheduler struct {
	cron     *cron.Cron
	executor *jobs.Executor
	sender   notify.DigestSender
}

type entry struct {
	spec string
	name string
	run  func(*Scheduler, context.Context)
}

// The full schedule in one place. Times are server-local.
var entries = []entry{
	{"0 0 * * *", "daily_reports", (*Scheduler).generateDailyReports},
	{"0 1 * * *", "sweep_expired_contracts", (*Scheduler).sweepExpiredContracts},
	{"10 1 * * *", "sweep_overdue_notes", (*Scheduler).sweepOverdueNotes},
	{"0 7 * * *", "contract_expiry_digest", (*Scheduler).contractExpiryDigest},
	{"30 7 * * *", "overdue_note_digest", (*Scheduler).overdueNoteDigest},
	{"0 2 * * 0", "cleanup_old_reports", (*Scheduler).cleanupOldReports},
	{"0 6 1 * *", "monthly_summary_digest", (*Scheduler).monthlySummaryDigest},
}

func New(executor *jobs.Executor, sender notify.DigestSender) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		executor: executor,
		sender:   sender,
	}
}

// Start registers every entry and launches the cron loop. Each run takes a
// distributed lock so overlapping replicas do not double-execute, and runs
// cross-tenant with tenant scoping disabled.
func (s *Scheduler) Start() error {
	logger := config.GetLogger()
	for _, e := range entries {
		e := e
		_, err := s.cron.AddFunc(e.spec, func() {
			ctx := utils.SetSkipTenantScopeInContext(context.Background())

			release, ok := utils.SweepLock(ctx, "schedule:"+e.name, 10*time.Minute)
			if !ok {
				logger.WithFields(logrus.Fields{"module": "schedule", "entry": e.name}).
					Info("skipped, another replica holds the lock")
				return
			}
			defer release()

			started := time.Now()
			e.run(s, ctx)
			logger.WithFields(logrus.Fields{
				"module":   "schedule",
				"entry":    e.name,
				"duration": time.Since(started).String(),
			}).Info("schedule entry finished")
		})
		if err != nil {
			return err
		}
	}
	s.cron.Start()
	logger.WithFields(logrus.Fields{"module": "schedule", "entries": len(entries)}).
		Info("scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running entries.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
