package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mentorlog-backend/internal/models"
)

type StudySessionRepo struct {
	pool *pgxpool.Pool
}

func NewStudySessionRepo(pool *pgxpool.Pool) *StudySessionRepo {
	return &StudySessionRepo{pool: pool}
}

const sessionColumns = `id, pairing_id, mentee_id, mentor_id, status, started_at, ended_at, record, version, created_at, updated_at`

func (r *StudySessionRepo) Create(ctx context.Context, s *models.StudySession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	record, err := encodeSessionRecord(s)
	if err != nil {
		return err
	}
	s.Version = 1

	query := `INSERT INTO study_sessions (id, pairing_id, mentee_id, mentor_id, status, started_at, ended_at, record, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		s.ID, s.PairingID, s.MenteeID, s.MentorID, string(s.Status), s.StartedAt, s.EndedAt, record, s.Version,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *StudySessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.StudySession, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM study_sessions WHERE id = $1`, id)
	return scanSession(row)
}

// Update writes s only if the stored version still equals s.Version, then
// advances s.Version. A stale write returns ErrVersionConflict.
func (r *StudySessionRepo) Update(ctx context.Context, s *models.StudySession) error {
	record, err := encodeSessionRecord(s)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE study_sessions
		SET status = $3,
			ended_at = $4,
			record = $5,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1
		  AND version = $2
	`, s.ID, s.Version, string(s.Status), s.EndedAt, record)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}

	s.Version++
	s.UpdatedAt = time.Now()
	return nil
}

func (r *StudySessionRepo) ListByMentee(ctx context.Context, menteeID uuid.UUID) ([]*models.StudySession, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+sessionColumns+` FROM study_sessions
		WHERE mentee_id = $1 ORDER BY started_at DESC`, menteeID)
	if err != nil {
		return nil, err
	}
	return collectSessions(rows)
}

func (r *StudySessionRepo) ListByPairing(ctx context.Context, pairingID uuid.UUID) ([]*models.StudySession, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+sessionColumns+` FROM study_sessions
		WHERE pairing_id = $1 ORDER BY started_at DESC`, pairingID)
	if err != nil {
		return nil, err
	}
	return collectSessions(rows)
}

// ListEndedBetween returns the pairing's sessions whose ended_at falls in
// [from, to).
func (r *StudySessionRepo) ListEndedBetween(ctx context.Context, pairingID uuid.UUID, from, to time.Time) ([]*models.StudySession, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+sessionColumns+` FROM study_sessions
		WHERE pairing_id = $1
		  AND ended_at >= $2
		  AND ended_at < $3
		ORDER BY started_at`, pairingID, from, to)
	if err != nil {
		return nil, err
	}
	return collectSessions(rows)
}

func collectSessions(rows pgx.Rows) ([]*models.StudySession, error) {
	defer rows.Close()

	var sessions []*models.StudySession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func scanSession(row pgx.Row) (*models.StudySession, error) {
	s := &models.StudySession{}
	var status string
	var record []byte

	err := row.Scan(
		&s.ID, &s.PairingID, &s.MenteeID, &s.MentorID, &status,
		&s.StartedAt, &s.EndedAt, &record, &s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Status = models.SessionStatus(status)
	if !s.Status.Valid() {
		return nil, fmt.Errorf("session %s has unknown status %q", s.ID, status)
	}
	if err := decodeSessionRecord(record, s); err != nil {
		return nil, err
	}
	return s, nil
}
