package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
	"github.com/schhatbar/Railway-Commuter/internal/platform"
)

// ListTrains handles GET /trains. ?q= filters by number, name or route.
func (s *Server) ListTrains(w http.ResponseWriter, r *http.Request) {
	trains, err := s.trains.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trains)
}

// GetTrain handles GET /trains/{number}.
func (s *Server) GetTrain(w http.ResponseWriter, r *http.Request) {
	train, err := s.trains.GetByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, train)
}

// GetPlatform handles GET /trains/{number}/platform.
// ?coach= selects the viewer's coach; ?group= highlights the coaches of that
// group's members, and requires the viewer to belong to the group.
func (s *Server) GetPlatform(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	train, err := s.trains.GetByNumber(ctx, chi.URLParam(r, "number"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	selected := q.Get("coach")
	if selected != "" {
		if _, ok := train.Coach(selected); !ok {
			s.writeError(w, r, fmt.Errorf("%w: train %s has no coach %s", domain.ErrValidation, train.Number, selected))
			return
		}
	}

	var members []domain.GroupMember
	if raw := q.Get("group"); raw != "" {
		groupID, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, requestBody("group must be a UUID"))
			return
		}
		g, err := s.groups.Get(ctx, groupID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if !g.HasMember(viewer(r).UserID) {
			s.writeError(w, r, fmt.Errorf("%w: only group members can see where the group is seated", domain.ErrForbidden))
			return
		}
		members = g.Members
	}

	writeJSON(w, http.StatusOK, platform.Compute(train, selected, members))
}
