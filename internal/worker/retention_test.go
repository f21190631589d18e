package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dan9191/weather-service/internal/config"
	"github.com/sirupsen/logrus"
)

type fakePruner struct {
	cutoff  time.Time
	deleted int64
	err     error
	calls   int
}

func (f *fakePruner) DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.calls++
	f.cutoff = cutoff
	return f.deleted, f.err
}

func TestRun_UsesRetentionCutoff(t *testing.T) {
	t.Parallel()

	pruner := &fakePruner{deleted: 3}
	cfg := &config.Config{LogRetentionDays: 14, RetentionSchedule: "0 3 * * *"}
	r := NewRetention(pruner, cfg, logrus.New())

	r.Run()

	if pruner.calls != 1 {
		t.Fatalf("expected one prune call, got %d", pruner.calls)
	}
	want := time.Now().AddDate(0, 0, -14)
	if diff := pruner.cutoff.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Fatalf("cutoff %v too far from expected %v", pruner.cutoff, want)
	}
}

func TestRun_PruneFailureIsLoggedNotFatal(t *testing.T) {
	t.Parallel()

	pruner := &fakePruner{err: errors.New("connection reset")}
	cfg := &config.Config{LogRetentionDays: 7, RetentionSchedule: "0 3 * * *"}
	r := NewRetention(pruner, cfg, logrus.New())

	r.Run() // must not panic
	if pruner.calls != 1 {
		t.Fatalf("expected one prune call, got %d", pruner.calls)
	}
}

func TestStart_DisabledWithoutRetentionDays(t *testing.T) {
	t.Parallel()

	pruner := &fakePruner{}
	cfg := &config.Config{LogRetentionDays: 0, RetentionSchedule: "0 3 * * *"}
	r := NewRetention(pruner, cfg, logrus.New())

	if err := r.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer r.Stop()

	if r.cron != nil {
		t.Fatal("expected no scheduler when retention is disabled")
	}
}

func TestStart_InvalidSchedule(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{LogRetentionDays: 7, RetentionSchedule: "not a cron expr"}
	r := NewRetention(&fakePruner{}, cfg, logrus.New())

	if err := r.Start(); err == nil {
		r.Stop()
		t.Fatal("expected error for invalid schedule")
	}
}
