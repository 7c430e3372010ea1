package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mentorlog-backend/internal/models"
)

type ReportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

type mentorFeedbackRecord struct {
	AuthorID  uuid.UUID `json:"author_id"`
	Comment   string    `json:"comment"`
	CreatedAt int64     `json:"created_at_ms"`
}

const reportColumns = `id, session_id, pairing_id, mentee_id, summary, distractions, mentor_feedback, created_at`

func (r *ReportRepo) Create(ctx context.Context, rep *models.SessionReport) error {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	distractions, err := json.Marshal(encodeDistractions(rep.Distractions))
	if err != nil {
		return fmt.Errorf("encode report distractions: %w", err)
	}

	query := `INSERT INTO session_reports (id, session_id, pairing_id, mentee_id, summary, distractions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.pool.Exec(ctx, query,
		rep.ID, rep.SessionID, rep.PairingID, rep.MenteeID, rep.Summary, distractions, rep.CreatedAt,
	)
	return err
}

func (r *ReportRepo) CountByPairing(ctx context.Context, pairingID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM session_reports WHERE pairing_id = $1", pairingID).Scan(&n)
	return n, err
}

func (r *ReportRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.SessionReport, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM session_reports WHERE id = $1`, id)
	return scanReport(row)
}

func (r *ReportRepo) ListByPairing(ctx context.Context, pairingID uuid.UUID) ([]*models.SessionReport, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+reportColumns+` FROM session_reports
		WHERE pairing_id = $1 ORDER BY created_at DESC`, pairingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*models.SessionReport
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

// SetMentorFeedback fills the report's single mentor feedback slot. It returns
// ErrAlreadySet when the slot is taken.
func (r *ReportRepo) SetMentorFeedback(ctx context.Context, id uuid.UUID, fb *models.MentorFeedback) error {
	raw, err := json.Marshal(mentorFeedbackRecord{AuthorID: fb.AuthorID, Comment: fb.Comment, CreatedAt: fb.CreatedAt.UnixMilli()})
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE session_reports
		SET mentor_feedback = $2
		WHERE id = $1
		  AND mentor_feedback IS NULL
	`, id, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadySet
	}
	return nil
}

// ReplaceDistractions swaps the report's distraction list for next, provided
// the stored list still equals prev.
func (r *ReportRepo) ReplaceDistractions(ctx context.Context, id uuid.UUID, prev, next []models.DistractionEvent) error {
	prevRaw, err := json.Marshal(encodeDistractions(prev))
	if err != nil {
		return err
	}
	nextRaw, err := json.Marshal(encodeDistractions(next))
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE session_reports
		SET distractions = $3
		WHERE id = $1
		  AND distractions = $2::jsonb
	`, id, prevRaw, nextRaw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func scanReport(row pgx.Row) (*models.SessionReport, error) {
	rep := &models.SessionReport{}
	var distractions, feedback []byte

	err := row.Scan(
		&rep.ID, &rep.SessionID, &rep.PairingID, &rep.MenteeID, &rep.Summary,
		&distractions, &feedback, &rep.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	var records []distractionRecord
	if err := json.Unmarshal(distractions, &records); err != nil {
		return nil, fmt.Errorf("decode report distractions: %w", err)
	}
	rep.Distractions = decodeDistractions(records)

	if len(feedback) > 0 {
		var fb mentorFeedbackRecord
		if err := json.Unmarshal(feedback, &fb); err != nil {
			return nil, fmt.Errorf("decode mentor feedback: %w", err)
		}
		rep.MentorFeedback = &models.MentorFeedback{AuthorID: fb.AuthorID, Comment: fb.Comment, CreatedAt: fromMillis(fb.CreatedAt)}
	}
	return rep, nil
}
