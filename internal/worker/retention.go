// Package worker runs the scheduled maintenance jobs.
package worker

import (
	"context"
	"time"

	"github.com/Dan9191/weather-service/internal/config"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// LogPruner deletes query log entries older than a cutoff
type LogPruner interface {
	DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Retention prunes query logs past the configured retention window on a
// cron schedule. A retention of zero days disables the job; the HTTP API
// itself never deletes logs.
type Retention struct {
	repo     LogPruner
	days     int
	schedule string
	cron     *cron.Cron
	log      *logrus.Logger
}

// NewRetention initializes the retention job from config
func NewRetention(repo LogPruner, cfg *config.Config, log *logrus.Logger) *Retention {
	return &Retention{
		repo:     repo,
		days:     cfg.LogRetentionDays,
		schedule: cfg.RetentionSchedule,
		log:      log,
	}
}

// Start schedules the job. No-op when retention is disabled.
func (r *Retention) Start() error {
	if r.days <= 0 {
		r.log.Info("Query log retention disabled")
		return nil
	}

	r.cron = cron.New()
	if _, err := r.cron.AddFunc(r.schedule, r.Run); err != nil {
		return err
	}
	r.cron.Start()

	r.log.Infof("Query log retention scheduled (%s, keep %d days)", r.schedule, r.days)
	return nil
}

// Stop halts the scheduler. In-flight runs complete.
func (r *Retention) Stop() {
	if r.cron != nil {
		r.cron.Stop()
	}
}

// Run deletes logs older than the retention window once
func (r *Retention) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -r.days)
	deleted, err := r.repo.DeleteLogsBefore(ctx, cutoff)
	if err != nil {
		r.log.Errorf("Query log retention failed: %v", err)
		return
	}

	r.log.Infof("Query log retention removed %d entries older than %s",
		deleted, cutoff.Format("2006-01-02"))
}
