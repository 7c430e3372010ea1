package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"mentorlog-backend/internal/models"
)

const weeklyRunClaimTTL = 6 * time.Hour

// RunClaimer grants a named run to exactly one process for ttl.
type RunClaimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type weeklyGenerator interface {
	PreviousWeekStart() time.Time
	GenerateForWeek(ctx context.Context, date time.Time, overwrite bool) (*models.GenerationResult, error)
}

// WeeklyScheduler runs the previous-week aggregation on a cron schedule.
type WeeklyScheduler struct {
	generator weeklyGenerator
	claimer   RunClaimer
	cron      *cron.Cron
}

func NewWeeklyScheduler(generator weeklyGenerator, claimer RunClaimer, spec string, loc *time.Location) (*WeeklyScheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &WeeklyScheduler{
		generator: generator,
		claimer:   claimer,
		cron:      cron.New(cron.WithLocation(loc)),
	}
	if _, err := s.cron.AddFunc(spec, func() {
		s.RunOnce(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("invalid weekly scheduler cron %q: %w", spec, err)
	}
	return s, nil
}

func (s *WeeklyScheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		log.Info().Time("next_run", e.Next).Msg("Weekly report scheduler started")
	}
}

// Stop prevents new runs and waits for a running one to finish or ctx to
// expire.
func (s *WeeklyScheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		log.Warn().Msg("Weekly report scheduler stopped before the running job finished")
	}
}

// RunOnce generates last week's reports if this process wins the claim for
// that week. It returns nil when the run was skipped.
func (s *WeeklyScheduler) RunOnce(ctx context.Context) *models.GenerationResult {
	weekStart := s.generator.PreviousWeekStart()
	key := "weekly_reports:run:" + weekStart.Format("2006-01-02")

	if s.claimer != nil {
		claimed, err := s.claimer.Claim(ctx, key, weeklyRunClaimTTL)
		if err != nil {
			// The unique (pairing, week) constraint still prevents duplicates.
			log.Warn().Err(err).Str("key", key).Msg("Weekly run claim failed, running unclaimed")
		} else if !claimed {
			log.Info().Str("key", key).Msg("Weekly run already claimed by another instance")
			return nil
		}
	}

	result, err := s.generator.GenerateForWeek(ctx, weekStart, false)
	if err != nil {
		log.Error().Err(err).Str("week_start", weekStart.Format("2006-01-02")).Msg("Scheduled weekly report run failed")
		return nil
	}
	return result
}
