package models

import (
	"time"

	"github.com/google/uuid"
)

// BoardEntryJob is a board entry whose first write failed and is queued for
// another attempt.
type BoardEntryJob struct {
	ID         uuid.UUID `json:"id"`
	SessionID  uuid.UUID `json:"session_id"`
	BoardID    uuid.UUID `json:"board_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	RetryCount int       `json:"retry_count"`
	MaxRetries int       `json:"max_retries"`
	CreatedAt  time.Time `json:"created_at"`
}
