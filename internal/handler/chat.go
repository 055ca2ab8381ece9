package handler

import (
	"net/http"
	"strings"
)

type sendMessageRequest struct {
	Text string `json:"text"`
}

// ListMessages handles GET /groups/{id}/messages, oldest first.
func (s *Server) ListMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	msgs, err := s.chat.List(r.Context(), id, viewer(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// SendMessage handles POST /groups/{id}/messages. Non-blank text is stored
// as given under the sender's current profile name.
func (s *Server) SendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req sendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("text is required"))
		return
	}

	msg, err := s.chat.Send(r.Context(), id, s.author(r), req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
