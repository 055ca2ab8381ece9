package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type registerDeviceRequest struct {
	Token      string `json:"token"`
	DeviceInfo string `json:"device_info"`
}

// RegisterDevice handles POST /devices with an FCM registration token.
// Re-registering a token moves it to the viewer.
func (s *Server) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req registerDeviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := s.devices.Register(r.Context(), viewer(r).UserID, req.Token, req.DeviceInfo)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// UnregisterDevice handles DELETE /devices/{token}.
func (s *Server) UnregisterDevice(w http.ResponseWriter, r *http.Request) {
	if err := s.devices.Unregister(r.Context(), viewer(r).UserID, chi.URLParam(r, "token")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
