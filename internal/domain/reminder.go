package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReminderLeadTime is how long before departure a journey reminder fires.
const ReminderLeadTime = time.Hour

// JourneyReminder asks for a push notification ahead of a journey.
type JourneyReminder struct {
	ID          uuid.UUID  `json:"id"`
	UserID      string     `json:"user_id"`
	TrainNumber string     `json:"train_number"`
	TrainName   string     `json:"train_name"`
	Route       string     `json:"route"`
	CoachNumber string     `json:"coach_number,omitempty"`
	SeatNumber  string     `json:"seat_number,omitempty"`
	JourneyAt   time.Time  `json:"journey_at"`
	RemindAt    time.Time  `json:"remind_at"`
	IsActive    bool       `json:"is_active"`
	SentAt      *time.Time `json:"sent_at,omitempty"` // nil until dispatched
	CreatedAt   time.Time  `json:"created_at"`
}

// DeviceToken is a push registration token for one of a user's devices.
type DeviceToken struct {
	Token      string    `json:"token"`
	UserID     string    `json:"user_id"`
	DeviceInfo string    `json:"device_info,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
