package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mentorlog-backend/internal/models"
)

type WeeklyReportRepo struct {
	pool *pgxpool.Pool
}

func NewWeeklyReportRepo(pool *pgxpool.Pool) *WeeklyReportRepo {
	return &WeeklyReportRepo{pool: pool}
}

const weeklyColumns = `id, pairing_id, mentor_id, mentee_id, week_start, week_end, study_hours,
	total_hours, focus_me, focus_avg, summary, generated_at`

func (r *WeeklyReportRepo) Exists(ctx context.Context, pairingID uuid.UUID, weekStart time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM weekly_reports WHERE pairing_id = $1 AND week_start = $2)",
		pairingID, weekStart,
	).Scan(&exists)
	return exists, err
}

// Insert stores w unless a report for the same pairing and week already
// exists. It reports whether a row was written.
func (r *WeeklyReportRepo) Insert(ctx context.Context, w *models.WeeklyReport) (bool, error) {
	return insertWeekly(ctx, r.pool, w)
}

// Replace deletes any report for w's pairing and week and inserts w in the
// same transaction.
func (r *WeeklyReportRepo) Replace(ctx context.Context, w *models.WeeklyReport) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace weekly report: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM weekly_reports WHERE pairing_id = $1 AND week_start = $2", w.PairingID, w.WeekStart); err != nil {
		return fmt.Errorf("delete weekly report: %w", err)
	}
	if _, err := insertWeekly(ctx, tx, w); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *WeeklyReportRepo) ListByPairing(ctx context.Context, pairingID uuid.UUID) ([]*models.WeeklyReport, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+weeklyColumns+` FROM weekly_reports
		WHERE pairing_id = $1 ORDER BY week_start DESC`, pairingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*models.WeeklyReport
	for rows.Next() {
		w, err := scanWeekly(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, w)
	}
	return reports, rows.Err()
}

func (r *WeeklyReportRepo) Latest(ctx context.Context, pairingID uuid.UUID) (*models.WeeklyReport, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+weeklyColumns+` FROM weekly_reports
		WHERE pairing_id = $1 ORDER BY week_start DESC LIMIT 1`, pairingID)
	return scanWeekly(row)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertWeekly(ctx context.Context, db rowQuerier, w *models.WeeklyReport) (bool, error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	hours, err := json.Marshal(w.StudyHours)
	if err != nil {
		return false, fmt.Errorf("encode study hours: %w", err)
	}

	var id uuid.UUID
	err = db.QueryRow(ctx, `
		INSERT INTO weekly_reports (id, pairing_id, mentor_id, mentee_id, week_start, week_end, study_hours,
			total_hours, focus_me, focus_avg, summary, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (pairing_id, week_start) DO NOTHING
		RETURNING id
	`, w.ID, w.PairingID, w.MentorID, w.MenteeID, w.WeekStart, w.WeekEnd, hours,
		w.TotalHours, w.FocusMe, w.FocusAvg, w.Summary, w.GeneratedAt,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func scanWeekly(row pgx.Row) (*models.WeeklyReport, error) {
	w := &models.WeeklyReport{}
	var hours []byte

	err := row.Scan(
		&w.ID, &w.PairingID, &w.MentorID, &w.MenteeID, &w.WeekStart, &w.WeekEnd, &hours,
		&w.TotalHours, &w.FocusMe, &w.FocusAvg, &w.Summary, &w.GeneratedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(hours, &w.StudyHours); err != nil {
		return nil, fmt.Errorf("decode study hours: %w", err)
	}
	return w, nil
}
