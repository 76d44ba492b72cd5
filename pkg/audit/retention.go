package audit

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kabro/accesscore/pkg/observability"
)

// Sweeper runs the retention policy against a DBLogger on a cron schedule.
// The sweep only ever removes entries older than the retention window; it
// never touches authorization state.
type Sweeper struct {
	logger *DBLogger
	policy RetentionPolicy
	log    *observability.Logger
	cron   *cron.Cron
}

// NewSweeper creates a retention sweeper. Call Start to begin sweeping.
func NewSweeper(logger *DBLogger, policy RetentionPolicy, log *observability.Logger) *Sweeper {
	return &Sweeper{
		logger: logger,
		policy: policy,
		log:    log,
		cron:   cron.New(),
	}
}

// Start schedules the sweep. A zero RetentionDays disables it.
func (s *Sweeper) Start() error {
	if s.policy.RetentionDays <= 0 {
		s.log.Info("audit retention sweep disabled")
		return nil
	}

	schedule := s.policy.Schedule
	if schedule == "" {
		schedule = DefaultRetentionPolicy().Schedule
	}

	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.log.WithField("retention_days", s.policy.RetentionDays).Info("audit retention sweep scheduled")
	return nil
}

// Stop halts the sweep schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -s.policy.RetentionDays)
	removed, err := s.logger.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		s.log.WithError(err).Warn("audit retention sweep failed")
		return
	}
	if removed > 0 {
		s.log.WithField("removed", removed).Info("audit retention sweep completed")
	}
}
