package backup

import (
	"context"
	"fmt"
	"time"

	"mswdportal/pkg/backup"
	"mswdportal/pkg/distributed"

	"go.uber.org/zap"
)

type SchedulerConfig struct {
	Interval      time.Duration
	RetentionDays int
}

// Scheduler takes snapshots on an interval and prunes old ones. With a
// lock manager set, only one portal instance runs each cycle; the others
// skip it.
type Scheduler struct {
	snapshotter *Snapshotter
	backups     *backup.Service
	locks       *distributed.LockManager
	cfg         SchedulerConfig
	logger      *zap.SugaredLogger
	stopChan    chan struct{}
	doneChan    chan struct{}
}

func NewScheduler(
	snapshotter *Snapshotter,
	backups *backup.Service,
	locks *distributed.LockManager,
	cfg SchedulerConfig,
	logger *zap.SugaredLogger,
) *Scheduler {
	return &Scheduler{
		snapshotter: snapshotter,
		backups:     backups,
		locks:       locks,
		cfg:         cfg,
		logger:      logger,
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	go s.run()
}

func (s *Scheduler) Stop() {
	close(s.stopChan)
	<-s.doneChan
}

func (s *Scheduler) run() {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runCycle()
		case <-s.stopChan:
			return
		}
	}
}

func (s *Scheduler) runCycle() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if s.locks != nil {
		lock := s.locks.NewLock("backup", s.cfg.Interval)
		acquired, err := lock.TryAcquire(ctx)
		if err != nil {
			s.logger.Warnw("failed to acquire backup lock", "error", err)
			return
		}
		if !acquired {
			// Another instance is taking this cycle's snapshot.
			return
		}
		defer func() {
			if err := lock.Release(ctx); err != nil {
				s.logger.Warnw("failed to release backup lock", "error", err)
			}
		}()
	}

	if _, err := s.snapshotter.Snapshot(ctx); err != nil {
		s.logger.Errorw("scheduled snapshot failed", "error", err)
		return
	}

	if err := s.prune(ctx); err != nil {
		s.logger.Warnw("failed to prune old snapshots", "error", err)
	}
}

// prune removes snapshots older than the retention window. Snapshot names
// embed their creation time.
func (s *Scheduler) prune(ctx context.Context) error {
	if s.cfg.RetentionDays <= 0 {
		return nil
	}

	names, err := s.backups.List(ctx)
	if err != nil {
		return err
	}

	cutoff := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)
	for _, name := range names {
		createdAt, err := parseSnapshotTime(name)
		if err != nil {
			s.logger.Warnw("skipping unparseable snapshot name", "name", name)
			continue
		}
		if createdAt.Before(cutoff) {
			if err := s.backups.Delete(ctx, name); err != nil {
				return err
			}
			s.logger.Infow("pruned old snapshot", "name", name)
		}
	}
	return nil
}

func parseSnapshotTime(name string) (time.Time, error) {
	var stamp string
	if _, err := fmt.Sscanf(name, "backup-%15s.json", &stamp); err != nil {
		return time.Time{}, err
	}
	return time.ParseInLocation("20060102-150405", stamp, time.Local)
}
