package handler

import (
	"net/http"
	"time"

	"github.com/schhatbar/Railway-Commuter/internal/service"
)

type createReminderRequest struct {
	TrainNumber string    `json:"train_number"`
	JourneyAt   time.Time `json:"journey_at"`
	CoachNumber string    `json:"coach_number"`
	SeatNumber  string    `json:"seat_number"`
}

type updateReminderRequest struct {
	IsActive *bool `json:"is_active"`
}

// ListReminders handles GET /reminders.
func (s *Server) ListReminders(w http.ResponseWriter, r *http.Request) {
	rems, err := s.reminders.List(r.Context(), viewer(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rems)
}

// CreateReminder handles POST /reminders. journey_at is RFC 3339.
func (s *Server) CreateReminder(w http.ResponseWriter, r *http.Request) {
	var req createReminderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rem, err := s.reminders.Create(r.Context(), viewer(r).UserID, service.ReminderInput{
		TrainNumber: req.TrainNumber,
		JourneyAt:   req.JourneyAt,
		CoachNumber: req.CoachNumber,
		SeatNumber:  req.SeatNumber,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rem)
}

// UpdateReminder handles PATCH /reminders/{id}, switching it on or off.
func (s *Server) UpdateReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req updateReminderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsActive == nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("is_active is required"))
		return
	}

	rem, err := s.reminders.SetActive(r.Context(), viewer(r).UserID, id, *req.IsActive)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

// DeleteReminder handles DELETE /reminders/{id}.
func (s *Server) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.reminders.Delete(r.Context(), viewer(r).UserID, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
