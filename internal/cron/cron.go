// Package cron schedules the recurring pipeline run. One process, one
// scheduler; overlap protection is a per-job mutex so a slow run is skipped
// rather than stacked.
package cron

import (
	"context"
	"sync"

	cronv3 "github.com/robfig/cron/v3"

	"github.com/briefstack/maildigest/internal/logger"
)

// PipelineFunc is one full ingest-then-digest pass.
type PipelineFunc func(ctx context.Context) error

type CronManager struct {
	schedule string
	pipeline PipelineFunc
	log      *logger.Logger
	cron     *cronv3.Cron
	jobLock  sync.Mutex
	jobIDs   map[string]cronv3.EntryID
}

func NewCronManager(schedule string, pipeline PipelineFunc, log *logger.Logger) *CronManager {
	return &CronManager{
		schedule: schedule,
		pipeline: pipeline,
		log:      log,
		jobIDs:   make(map[string]cronv3.EntryID),
	}
}

// Start registers the pipeline job and starts the scheduler. The schedule is
// a standard 5-field cron expression.
func (cm *CronManager) Start() error {
	c := cronv3.New(cronv3.WithChain(
		cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
		cronv3.Recover(cronv3.DefaultLogger),
	))

	id, err := c.AddFunc(cm.schedule, cm.runPipeline)
	if err != nil {
		return err
	}
	cm.jobIDs["pipeline"] = id
	cm.log.Infof("registered pipeline job with schedule %q", cm.schedule)

	c.Start()
	cm.cron = c
	return nil
}

// Stop drains the scheduler and waits for a running job to finish.
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Infof("stopping cron manager")
		<-cm.cron.Stop().Done()
	}
}

func (cm *CronManager) runPipeline() {
	if !cm.jobLock.TryLock() {
		cm.log.Warnf("previous pipeline run still in progress, skipping")
		return
	}
	defer cm.jobLock.Unlock()

	if err := cm.pipeline(context.Background()); err != nil {
		cm.log.Errorf("scheduled pipeline run failed: %v", err)
		return
	}
	cm.log.Infof("scheduled pipeline run complete")
}
