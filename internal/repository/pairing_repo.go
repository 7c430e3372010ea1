package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"mentorlog-backend/internal/models"
)

// PairingRepo reads the pairing registry. Pairings are created and accepted
// by the matching workflow, which owns the write side of the table.
type PairingRepo struct {
	pool *pgxpool.Pool
}

func NewPairingRepo(pool *pgxpool.Pool) *PairingRepo {
	return &PairingRepo{pool: pool}
}

func (r *PairingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Pairing, error) {
	p := &models.Pairing{}
	var status string
	err := r.pool.QueryRow(ctx,
		"SELECT id, mentor_id, mentee_id, status, created_at FROM pairings WHERE id = $1", id,
	).Scan(&p.ID, &p.MentorID, &p.MenteeID, &status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = models.PairingStatus(status)
	return p, nil
}

func (r *PairingRepo) ListConfirmed(ctx context.Context) ([]*models.Pairing, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id, mentor_id, mentee_id, status, created_at FROM pairings WHERE status = $1 ORDER BY created_at",
		string(models.PairingAccepted),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairings []*models.Pairing
	for rows.Next() {
		p := &models.Pairing{}
		var status string
		if err := rows.Scan(&p.ID, &p.MentorID, &p.MenteeID, &status, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Status = models.PairingStatus(status)
		pairings = append(pairings, p)
	}
	return pairings, rows.Err()
}
