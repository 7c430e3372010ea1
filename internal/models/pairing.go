package models

import (
	"time"

	"github.com/google/uuid"
)

type PairingStatus string

const (
	PairingPending  PairingStatus = "PENDING"
	PairingAccepted PairingStatus = "ACCEPTED"
	PairingRejected PairingStatus = "REJECTED"
)

// Pairing is a mentor/mentee relationship. Only ACCEPTED pairings take part
// in sessions and weekly reporting.
type Pairing struct {
	ID        uuid.UUID     `json:"id"`
	MentorID  uuid.UUID     `json:"mentor_id"`
	MenteeID  uuid.UUID     `json:"mentee_id"`
	Status    PairingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

func (p *Pairing) Confirmed() bool {
	return p.Status == PairingAccepted
}

func (p *Pairing) IsMember(userID uuid.UUID) bool {
	return p.MentorID == userID || p.MenteeID == userID
}

type Board struct {
	ID        uuid.UUID `json:"id"`
	PairingID uuid.UUID `json:"pairing_id"`
	Title     string    `json:"title"`
}

type BoardEntry struct {
	ID        uuid.UUID `json:"id"`
	BoardID   uuid.UUID `json:"board_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	EntryNo   int       `json:"entry_no"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Status    string    `json:"status"` // "INCOMPLETE" | "COMPLETED"
	CreatedAt time.Time `json:"created_at"`
}
