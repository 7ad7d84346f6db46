// Package scheduler 定时取消长时间未结束的训练。
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

// Sweeper 取消在 cutoff 之前开始且仍未结束的训练
type Sweeper interface {
	SweepStale(ctx context.Context, cutoff time.Time) (int, error)
}

// Reporter 接收每次清理的取消数量
type Reporter interface {
	StaleCancelled(n int)
}

// Scheduler 管理后台定时任务
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeper   Sweeper
	reporter  Reporter
	maxAge    time.Duration
	interval  time.Duration
	now       func() time.Time
}

// New 构造 Scheduler；maxAge 为训练允许保持活跃的最长时间，interval 为检查间隔
func New(sweeper Sweeper, reporter Reporter, maxAge, interval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		sweeper:   sweeper,
		reporter:  reporter,
		maxAge:    maxAge,
		interval:  interval,
		now:       time.Now,
	}
}

// Start 以非阻塞方式启动定时任务，首次检查立即执行
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.SweepOnce); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop 停止全部定时任务
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// SweepOnce 执行一次清理
func (s *Scheduler) SweepOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := s.now().Add(-s.maxAge)
	cancelled, err := s.sweeper.SweepStale(ctx, cutoff)
	if s.reporter != nil && cancelled > 0 {
		s.reporter.StaleCancelled(cancelled)
	}
	if err != nil {
		logrus.WithError(err).Error("sweep stale workouts")
		return
	}
	if cancelled > 0 {
		logrus.WithFields(logrus.Fields{
			"cancelled": cancelled,
			"cutoff":    cutoff.Format(time.RFC3339),
		}).Info("cancelled stale workouts")
	}
}
