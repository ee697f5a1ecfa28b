// Package maintenance runs housekeeping jobs against the storage directory.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/dom/task-manager/internal/repository/jsonfile"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler prunes backups of corrupted storage files on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	dir       string
	retention time.Duration
	now       func() time.Time
}

// NewScheduler validates schedule (standard cron syntax or a descriptor
// such as "@daily") and returns a scheduler that has not been started.
func NewScheduler(dir string, retentionDays int, schedule string) (*Scheduler, error) {
	if retentionDays <= 0 {
		return nil, fmt.Errorf("backup retention must be positive, got %d days", retentionDays)
	}

	s := &Scheduler{
		cron:      cron.New(),
		dir:       dir,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.PruneOnce() }); err != nil {
		return nil, fmt.Errorf("invalid backup prune schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start prunes once immediately, then runs on the schedule in the background.
func (s *Scheduler) Start() {
	log.Info().Str("dir", s.dir).Dur("retention", s.retention).Msg("Starting backup pruning scheduler")
	s.PruneOnce()
	s.cron.Start()
}

// Stop halts the schedule and waits for a running prune to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		log.Warn().Msg("Backup pruning did not finish before shutdown")
	}
}

// PruneOnce removes backups older than the retention window and returns
// how many were deleted.
func (s *Scheduler) PruneOnce() int {
	removed, err := jsonfile.PruneBackups(s.dir, s.now().Add(-s.retention))
	if err != nil {
		log.Error().Err(err).Str("dir", s.dir).Msg("Backup pruning failed")
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("Pruned old storage backups")
	}
	return removed
}
