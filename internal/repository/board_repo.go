package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"mentorlog-backend/internal/models"
)

type BoardRepo struct {
	pool *pgxpool.Pool
}

func NewBoardRepo(pool *pgxpool.Pool) *BoardRepo {
	return &BoardRepo{pool: pool}
}

func (r *BoardRepo) FindByPairing(ctx context.Context, pairingID uuid.UUID) (*models.Board, error) {
	b := &models.Board{}
	err := r.pool.QueryRow(ctx,
		"SELECT id, pairing_id, title FROM boards WHERE pairing_id = $1", pairingID,
	).Scan(&b.ID, &b.PairingID, &b.Title)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// CreateEntry appends an INCOMPLETE entry numbered after the board's last one.
// The board row is locked so concurrent writers get distinct numbers.
func (r *BoardRepo) CreateEntry(ctx context.Context, boardID, authorID uuid.UUID, title, body string) (*models.BoardEntry, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create entry: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked uuid.UUID
	if err := tx.QueryRow(ctx, "SELECT id FROM boards WHERE id = $1 FOR UPDATE", boardID).Scan(&locked); err != nil {
		return nil, err
	}

	e := &models.BoardEntry{
		ID:        uuid.New(),
		BoardID:   boardID,
		AuthorID:  authorID,
		Title:     title,
		Body:      body,
		Status:    "INCOMPLETE",
		CreatedAt: time.Now(),
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO board_entries (id, board_id, author_id, entry_no, title, body, status, created_at)
		VALUES ($1, $2, $3, (SELECT COALESCE(MAX(entry_no), 0) + 1 FROM board_entries WHERE board_id = $2), $4, $5, $6, $7)
		RETURNING entry_no
	`, e.ID, e.BoardID, e.AuthorID, e.Title, e.Body, e.Status, e.CreatedAt).Scan(&e.EntryNo)
	if err != nil {
		return nil, fmt.Errorf("insert board entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

