package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	spec := a.appConfig.Storage.SweepCron
	if spec == "" {
		spec = "@every 1h"
	}
	_, err := a.sched.AddFunc(spec, func() {
		go a.SchedAttachmentSweepTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// SchedAttachmentSweepTask reclaims storage files that lost their row,
// either to a failed upload or to a cleanup interrupted mid-way.
func (a *Application) SchedAttachmentSweepTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	grace := time.Duration(a.appConfig.Storage.SweepGraceHours) * time.Hour
	if grace <= 0 {
		grace = 24 * time.Hour
	}

	removed, err := a.attachmentStore.Sweep(context.Background(), grace)
	if err != nil {
		zap.L().Error("attachment sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		zap.L().Info("attachment sweep removed orphaned files", zap.Int("removed", removed))
	}
}
