package memory

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper runs the working-memory garbage collection on a schedule.
type Sweeper struct {
	manager *Manager
	cron    *cron.Cron
	logger  *zap.Logger
}

// NewSweeper creates a sweeper over manager. A nil logger disables
// logging. Call Start to begin sweeping.
func NewSweeper(manager *Manager, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		manager: manager,
		cron:    cron.New(),
		logger:  logger,
	}
}

// Start schedules a sweep every interval and begins running.
func (s *Sweeper) Start(interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	spec := fmt.Sprintf("@every %s", interval)
	_, err := s.cron.AddFunc(spec, func() {
		evicted := s.manager.Sweep()
		s.logger.Debug("working-memory sweep complete", zap.Int("evicted", evicted))
	})
	if err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
