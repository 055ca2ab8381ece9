package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one entry in a group's append-only chat log.
// SentAt is assigned by the database at insert time.
type ChatMessage struct {
	ID       uuid.UUID `json:"id"`
	GroupID  uuid.UUID `json:"group_id"`
	UserID   string    `json:"user_id"`
	UserName string    `json:"user_name"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sent_at"`
}
