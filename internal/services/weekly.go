package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"mentorlog-backend/internal/models"
)

const weeklyFallback = "The weekly summary could not be generated."

// weekdayLabels are the study-hour keys, Monday first.
var weekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func weekdayLabel(d time.Weekday) string {
	return weekdayLabels[(int(d)+6)%7]
}

func weekdayIndex(label string) int {
	for i, l := range weekdayLabels {
		if l == label {
			return i
		}
	}
	return len(weekdayLabels)
}

// WeekStart returns local midnight of the Monday on or before t in loc.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	midnight := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	return midnight.AddDate(0, 0, -((int(lt.Weekday()) + 6) % 7))
}

// FocusScore is 70 plus up to 20 for study hours minus up to 40 for
// distractions, clamped to [40, 95].
func FocusScore(totalHours float64, distractions int) int {
	raw := 70 + math.Min(20, totalHours*1.5) - math.Min(40, float64(distractions)*4)
	score := int(math.Floor(raw + 0.5))
	return max(40, min(95, score))
}

// roundTenth rounds half up to one decimal.
func roundTenth(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

type weeklyAggregate struct {
	studyHours   map[string]float64
	totalHours   float64
	totalMinutes float64
	distractions int
}

// aggregateWeek buckets net minutes into the weekday of each session's local
// start. Sessions missing either timestamp or without net study time are
// ignored, distractions included.
func aggregateWeek(sessions []*models.StudySession, loc *time.Location) weeklyAggregate {
	minutes := make(map[string]float64, len(weekdayLabels))
	for _, l := range weekdayLabels {
		minutes[l] = 0
	}

	agg := weeklyAggregate{studyHours: make(map[string]float64, len(weekdayLabels))}
	for _, s := range sessions {
		if s.StartedAt.IsZero() || s.EndedAt == nil {
			continue
		}
		net := NetMinutes(s)
		if net <= 0 {
			continue
		}
		minutes[weekdayLabel(s.StartedAt.In(loc).Weekday())] += net
		agg.totalMinutes += net
		agg.distractions += len(s.Distractions)
	}

	for day, m := range minutes {
		agg.studyHours[day] = roundTenth(m / 60)
	}
	agg.totalHours = roundTenth(agg.totalMinutes / 60)
	return agg
}

// WeeklyAggregator builds one WeeklyReport per confirmed pairing per week.
type WeeklyAggregator struct {
	pairings  PairingRegistry
	sessions  SessionStore
	reports   WeeklyReportStore
	narrative NarrativeSummarizer
	loc       *time.Location
	focusAvg  int
	now       func() time.Time
}

func NewWeeklyAggregator(pairings PairingRegistry, sessions SessionStore, reports WeeklyReportStore, narrative NarrativeSummarizer, loc *time.Location, focusAvg int) *WeeklyAggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &WeeklyAggregator{
		pairings:  pairings,
		sessions:  sessions,
		reports:   reports,
		narrative: narrative,
		loc:       loc,
		focusAvg:  focusAvg,
		now:       time.Now,
	}
}

func (a *WeeklyAggregator) Location() *time.Location { return a.loc }

// PreviousWeekStart is the Monday one week before the current week.
func (a *WeeklyAggregator) PreviousWeekStart() time.Time {
	return WeekStart(a.now(), a.loc).AddDate(0, 0, -7)
}

func (a *WeeklyAggregator) GenerateForPreviousWeek(ctx context.Context, overwrite bool) (*models.GenerationResult, error) {
	return a.GenerateForWeek(ctx, a.PreviousWeekStart(), overwrite)
}

// GenerateForWeek processes the week containing date. Pairings are handled
// sequentially; a failure on one pairing is logged and counted as skipped.
func (a *WeeklyAggregator) GenerateForWeek(ctx context.Context, date time.Time, overwrite bool) (*models.GenerationResult, error) {
	weekStart := WeekStart(date, a.loc)
	weekEnd := weekStart.AddDate(0, 0, 7)

	pairings, err := a.pairings.ListConfirmed(ctx)
	if err != nil {
		return nil, err
	}

	result := &models.GenerationResult{
		WeekStart:     weekStart.Format("2006-01-02"),
		TotalPairings: len(pairings),
	}
	for _, p := range pairings {
		logger := log.With().Str("pairing_id", p.ID.String()).Str("week_start", result.WeekStart).Logger()

		generated, err := a.generateForPairing(ctx, p, weekStart, weekEnd, overwrite, logger)
		if err != nil {
			logger.Error().Err(err).Msg("Weekly report generation failed")
		}
		if generated {
			result.GeneratedCount++
		} else {
			result.SkippedCount++
		}
	}

	log.Info().
		Str("week_start", result.WeekStart).
		Int("generated", result.GeneratedCount).
		Int("skipped", result.SkippedCount).
		Int("pairings", result.TotalPairings).
		Msg("Weekly reports generated")
	return result, nil
}

func (a *WeeklyAggregator) generateForPairing(ctx context.Context, p *models.Pairing, weekStart, weekEnd time.Time, overwrite bool, logger zerolog.Logger) (bool, error) {
	if p.ID == uuid.Nil || !p.Confirmed() {
		return false, nil
	}

	exists, err := a.reports.Exists(ctx, p.ID, weekStart)
	if err != nil {
		return false, err
	}
	if exists && !overwrite {
		logger.Debug().Msg("Weekly report exists, skipping")
		return false, nil
	}

	sessions, err := a.sessions.ListEndedBetween(ctx, p.ID, weekStart, weekEnd)
	if err != nil {
		return false, err
	}
	agg := aggregateWeek(sessions, a.loc)
	if agg.totalMinutes <= 0 {
		logger.Debug().Int("sessions", len(sessions)).Msg("No study time in week, skipping")
		return false, nil
	}

	focus := FocusScore(agg.totalHours, agg.distractions)
	report := &models.WeeklyReport{
		PairingID:   p.ID,
		MentorID:    p.MentorID,
		MenteeID:    p.MenteeID,
		WeekStart:   weekStart,
		WeekEnd:     weekEnd,
		StudyHours:  agg.studyHours,
		TotalHours:  agg.totalHours,
		FocusMe:     focus,
		FocusAvg:    a.focusAvg,
		Summary:     a.narrate(ctx, agg, focus, logger),
		GeneratedAt: a.now().UTC(),
	}

	if exists {
		if err := a.reports.Replace(ctx, report); err != nil {
			return false, err
		}
		return true, nil
	}
	inserted, err := a.reports.Insert(ctx, report)
	if err != nil {
		return false, err
	}
	if !inserted {
		logger.Debug().Msg("Weekly report inserted concurrently, skipping")
	}
	return inserted, nil
}

func (a *WeeklyAggregator) narrate(ctx context.Context, agg weeklyAggregate, focus int, logger zerolog.Logger) string {
	if a.narrative == nil {
		return weeklyFallback
	}
	summary, err := a.narrative.SummarizeWeek(ctx, WeeklyDigest{
		StudyHours: agg.studyHours,
		TotalHours: agg.totalHours,
		FocusMe:    focus,
		FocusAvg:   a.focusAvg,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Narrative summarizer failed")
		return weeklyFallback
	}
	return summary
}

func (a *WeeklyAggregator) List(ctx context.Context, pairingID, actingUserID uuid.UUID) ([]*models.WeeklyReport, error) {
	if err := a.checkMembership(ctx, pairingID, actingUserID); err != nil {
		return nil, err
	}
	return a.reports.ListByPairing(ctx, pairingID)
}

// Latest returns the most recent report, or nil when none exists.
func (a *WeeklyAggregator) Latest(ctx context.Context, pairingID, actingUserID uuid.UUID) (*models.WeeklyReport, error) {
	if err := a.checkMembership(ctx, pairingID, actingUserID); err != nil {
		return nil, err
	}
	report, err := a.reports.Latest(ctx, pairingID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (a *WeeklyAggregator) checkMembership(ctx context.Context, pairingID, actingUserID uuid.UUID) error {
	pairing, err := a.pairings.GetByID(ctx, pairingID)
	if err != nil {
		return storeError(err, "Pairing")
	}
	if !pairing.IsMember(actingUserID) {
		return &ForbiddenError{Message: "You are not a member of this pairing"}
	}
	return nil
}
