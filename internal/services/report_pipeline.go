package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"mentorlog-backend/internal/models"
)

const summaryFallback = "The session summary could not be generated."

// ReportPipeline turns an ended session into its report and posts the
// session's questions to the pairing's board.
type ReportPipeline struct {
	reports    ReportStore
	boards     BoardPublisher
	summarizer TextSummarizer
	retries    EntryRetryQueue
	loc        *time.Location
	now        func() time.Time
}

func NewReportPipeline(reports ReportStore, boards BoardPublisher, summarizer TextSummarizer, loc *time.Location) *ReportPipeline {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportPipeline{
		reports:    reports,
		boards:     boards,
		summarizer: summarizer,
		loc:        loc,
		now:        time.Now,
	}
}

// WithRetryQueue makes failed board entries retry in the background.
func (p *ReportPipeline) WithRetryQueue(q EntryRetryQueue) *ReportPipeline {
	p.retries = q
	return p
}

// Run persists exactly one report for session. Summarizer and board failures
// are logged and absorbed; only a failed report write is returned.
func (p *ReportPipeline) Run(ctx context.Context, session *models.StudySession) (*models.SessionReport, error) {
	report := &models.SessionReport{
		SessionID:    session.ID,
		PairingID:    session.PairingID,
		MenteeID:     session.MenteeID,
		Summary:      p.summarize(ctx, session),
		Distractions: session.CopyDistractions(),
		CreatedAt:    p.now().UTC(),
	}
	if err := p.reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("persist session report: %w", err)
	}
	log.Info().
		Str("session_id", session.ID.String()).
		Str("report_id", report.ID.String()).
		Msg("Session report created")

	if len(session.Questions) > 0 {
		p.publishQuestions(ctx, session)
	}
	return report, nil
}

func (p *ReportPipeline) summarize(ctx context.Context, session *models.StudySession) string {
	notes := make([]string, 0, len(session.StudyNotes))
	for _, n := range session.StudyNotes {
		notes = append(notes, n.Content)
	}

	if p.summarizer == nil {
		return summaryFallback
	}
	summary, err := p.summarizer.Summarize(ctx, strings.Join(notes, "\n"))
	if err != nil {
		log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("Text summarizer failed")
		return summaryFallback
	}
	return summary
}

// publishQuestions creates one board entry per question. Entries already
// created stay in place if a later one fails.
func (p *ReportPipeline) publishQuestions(ctx context.Context, session *models.StudySession) {
	logger := log.With().Str("session_id", session.ID.String()).Str("pairing_id", session.PairingID.String()).Logger()

	ordinal, err := p.reports.CountByPairing(ctx, session.PairingID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to count pairing reports, skipping board publication")
		return
	}

	board, err := p.boards.FindByPairing(ctx, session.PairingID)
	if errors.Is(err, pgx.ErrNoRows) {
		logger.Debug().Msg("Pairing has no board, skipping question publication")
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to resolve pairing board")
		return
	}

	title := EntryTitle(session.StartedAt, ordinal, p.loc)
	created := 0
	for i, q := range session.Questions {
		if _, err := p.boards.CreateEntry(ctx, board.ID, session.MenteeID, title, q.Text); err != nil {
			logger.Warn().Err(err).Int("question", i).Msg("Failed to create board entry")
			p.retry(ctx, session, board.ID, title, q.Text)
			continue
		}
		created++
	}
	logger.Info().Int("entries", created).Int("questions", len(session.Questions)).Msg("Session questions published")
}

func (p *ReportPipeline) retry(ctx context.Context, session *models.StudySession, boardID uuid.UUID, title, body string) {
	if p.retries == nil {
		return
	}
	err := p.retries.Enqueue(ctx, models.BoardEntryJob{
		SessionID: session.ID,
		BoardID:   boardID,
		AuthorID:  session.MenteeID,
		Title:     title,
		Body:      body,
		CreatedAt: p.now().UTC(),
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", session.ID.String()).Msg("Failed to queue board entry retry")
	}
}

// EntryTitle is the board title shared by all questions of one session.
func EntryTitle(startedAt time.Time, ordinal int, loc *time.Location) string {
	return fmt.Sprintf("[%s Session #%d]", startedAt.In(loc).Format("2006.01.02"), ordinal)
}
