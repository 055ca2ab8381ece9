package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
)

type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	PhoneNumber *string `json:"phone_number"`
}

// GetProfile handles GET /me. The profile is created on first access, and
// when the store is unavailable a degraded in-memory profile is returned.
func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.profiles.Bootstrap(r.Context(), viewer(r)))
}

// UpdateProfile handles PATCH /me. Omitted fields are left unchanged.
func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := s.profiles.Update(r.Context(), viewer(r).UserID, domain.ProfileUpdate{
		DisplayName: req.DisplayName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// AddFrequentRoute handles POST /me/routes.
func (s *Server) AddFrequentRoute(w http.ResponseWriter, r *http.Request) {
	var req domain.FrequentRoute
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := s.profiles.AddFrequentRoute(r.Context(), viewer(r).UserID, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// RemoveFrequentRoute handles DELETE /me/routes/{trainNumber}.
func (s *Server) RemoveFrequentRoute(w http.ResponseWriter, r *http.Request) {
	u, err := s.profiles.RemoveFrequentRoute(r.Context(), viewer(r).UserID, chi.URLParam(r, "trainNumber"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
