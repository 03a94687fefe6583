package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const DefaultReportSpec = "0 21 * * *"

// Scheduler runs the periodic report job. Schedules are evaluated in UTC.
type Scheduler struct {
	cron       *cron.Cron
	spec       string
	ctx        context.Context
	cancel     context.CancelFunc
	reportFunc func(ctx context.Context) error
}

func New(spec string) *Scheduler {
	if spec == "" {
		spec = DefaultReportSpec
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		spec:   spec,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) SetReportFunction(f func(ctx context.Context) error) {
	s.reportFunc = f
}

// Start registers the report job and starts the cron loop. Without a report
// function it does nothing.
func (s *Scheduler) Start() error {
	if s.reportFunc == nil {
		log.Warn().Msg("report function not set, scheduler will not generate reports")
		return nil
	}

	_, err := s.cron.AddFunc(s.spec, func() {
		log.Info().Str("schedule", s.spec).Msg("generating usage report")
		if err := s.reportFunc(s.ctx); err != nil {
			log.Error().Err(err).Msg("usage report failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid report schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	log.Info().Str("schedule", s.spec).Msg("scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
