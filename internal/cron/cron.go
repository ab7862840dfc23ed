package cron

import (
	"sync"

	cronv3 "github.com/robfig/cron/v3"

	"github.com/pwalczyk/mailvault/internal/logger"
)

// SyncJob is the function the scheduler invokes on each tick.
type SyncJob func()

// CronManager runs the mailbox sync on a fixed schedule for the watch mode.
// Only one sync runs at a time; a tick that fires while the previous run is
// still in flight is skipped.
type CronManager struct {
	log      logger.Logger
	schedule string
	job      SyncJob
	cron     *cronv3.Cron
	stopCh   chan struct{}
	jobIDs   map[string]cronv3.EntryID
	syncLock sync.Mutex
}

func NewCronManager(log logger.Logger, schedule string, job SyncJob) *CronManager {
	return &CronManager{
		log:      log,
		schedule: schedule,
		job:      job,
		stopCh:   make(chan struct{}),
		jobIDs:   make(map[string]cronv3.EntryID),
	}
}

// Start initializes the scheduler and registers the sync job. The schedule
// uses the six-field form with a leading seconds field.
func (cm *CronManager) Start() error {
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	}
	c := cronv3.New(cronOptions...)

	id, err := c.AddFunc(cm.schedule, func() {
		cm.syncLock.Lock()
		defer cm.syncLock.Unlock()
		cm.job()
	})
	if err != nil {
		return err
	}
	cm.jobIDs["sync"] = id
	cm.log.Infof("Registered sync job with schedule: %s", cm.schedule)

	c.Start()
	cm.cron = c
	return nil
}

// Stop gracefully stops the scheduler and waits for a running sync to finish.
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		<-ctx.Done()
	}
	close(cm.stopCh)
}

// Done is closed once the manager has been stopped.
func (cm *CronManager) Done() <-chan struct{} {
	return cm.stopCh
}
