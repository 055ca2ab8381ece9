package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
	"github.com/schhatbar/Railway-Commuter/internal/service"
)

type createGroupRequest struct {
	Name        string             `json:"name"`
	TrainNumber string             `json:"train_number"`
	JourneyDate openapi_types.Date `json:"journey_date"`
	CoachNumber string             `json:"coach_number"`
	SeatNumber  string             `json:"seat_number"`
}

type joinGroupRequest struct {
	Code        string `json:"code"`
	CoachNumber string `json:"coach_number"`
	SeatNumber  string `json:"seat_number"`
}

type seatRequest struct {
	CoachNumber string `json:"coach_number"`
	SeatNumber  string `json:"seat_number"`
}

// GroupResponse is the API form of a group. The journey date is a calendar
// date without a time of day.
type GroupResponse struct {
	ID          openapi_types.UUID   `json:"id"`
	Name        string               `json:"name"`
	Code        string               `json:"code"`
	CreatedBy   string               `json:"created_by"`
	TrainNumber string               `json:"train_number"`
	Route       string               `json:"route"`
	JourneyDate openapi_types.Date   `json:"journey_date"`
	IsActive    bool                 `json:"is_active"`
	CreatedAt   time.Time            `json:"created_at"`
	Members     []domain.GroupMember `json:"members"`
}

// DeleteGroupResponse reports what a group deletion removed.
type DeleteGroupResponse struct {
	MessagesRemoved int64 `json:"messages_removed"`
}

// groupToResponse converts a domain.Group to its API form. A nil member
// list is sent as an empty array.
func groupToResponse(g domain.Group) GroupResponse {
	members := g.Members
	if members == nil {
		members = []domain.GroupMember{}
	}
	return GroupResponse{
		ID:          openapi_types.UUID(g.ID),
		Name:        g.Name,
		Code:        g.Code,
		CreatedBy:   g.CreatedBy,
		TrainNumber: g.TrainNumber,
		Route:       g.Route,
		JourneyDate: openapi_types.Date{Time: g.JourneyDate},
		IsActive:    g.IsActive,
		CreatedAt:   g.CreatedAt,
		Members:     members,
	}
}

// ListGroups handles GET /groups: the viewer's active groups, newest first.
func (s *Server) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.groups.ListForUser(r.Context(), viewer(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]GroupResponse, len(groups))
	for i, g := range groups {
		out[i] = groupToResponse(g)
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateGroup handles POST /groups. The viewer becomes the first member.
func (s *Server) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	me := s.author(r)
	g, err := s.groups.Create(r.Context(), service.GroupInput{
		Name:        req.Name,
		TrainNumber: req.TrainNumber,
		JourneyDate: req.JourneyDate.Time,
		Creator: domain.GroupMember{
			UserID:      me.UserID,
			UserName:    displayName(me),
			CoachNumber: req.CoachNumber,
			SeatNumber:  req.SeatNumber,
		},
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, groupToResponse(g))
}

// JoinGroup handles POST /groups/join with a 6-digit code.
func (s *Server) JoinGroup(w http.ResponseWriter, r *http.Request) {
	var req joinGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	me := s.author(r)
	g, err := s.groups.Join(r.Context(), req.Code, domain.GroupMember{
		UserID:      me.UserID,
		UserName:    displayName(me),
		CoachNumber: req.CoachNumber,
		SeatNumber:  req.SeatNumber,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groupToResponse(g))
}

// GetGroupByCode handles GET /groups/code/{code}, a preview before joining.
func (s *Server) GetGroupByCode(w http.ResponseWriter, r *http.Request) {
	g, err := s.groups.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groupToResponse(g))
}

// GetGroup handles GET /groups/{id}.
func (s *Server) GetGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	g, err := s.groups.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groupToResponse(g))
}

// DeleteGroup handles DELETE /groups/{id}. Only the creator may delete.
func (s *Server) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	removed, err := s.groups.Delete(r.Context(), id, viewer(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteGroupResponse{MessagesRemoved: removed})
}

// LeaveGroup handles POST /groups/{id}/leave. Leaving a group you are not
// in succeeds.
func (s *Server) LeaveGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.groups.Leave(r.Context(), id, viewer(r).UserID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateSeat handles PUT /groups/{id}/seat for the viewer's own membership.
func (s *Server) UpdateSeat(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req seatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	if err := s.groups.UpdateMemberSeat(ctx, id, viewer(r).UserID, req.CoachNumber, req.SeatNumber); err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := s.groups.Get(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groupToResponse(g))
}
