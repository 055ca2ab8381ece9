package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
	"github.com/schhatbar/Railway-Commuter/internal/session"
)

// pathUUID parses the named path parameter. On failure it writes a 422 and
// returns false.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(name+" must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// viewer returns the signed-in identity. RequireAuth guarantees one on every
// route that calls it.
func viewer(r *http.Request) domain.Identity {
	return session.FromContext(r.Context()).Identity
}

// author returns the signed-in identity carrying the display name from the
// stored profile. Token claims are fixed at sign-in; the profile is not.
func (s *Server) author(r *http.Request) domain.Identity {
	id := viewer(r)
	if u := s.profiles.Bootstrap(r.Context(), id); u.DisplayName != "" {
		id.DisplayName = u.DisplayName
	}
	return id
}

// displayName is what other members see for id.
func displayName(id domain.Identity) string {
	if id.DisplayName != "" {
		return id.DisplayName
	}
	return id.Email
}
