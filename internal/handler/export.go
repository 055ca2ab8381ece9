package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
)

// transcriptHeaders is the first row of a CSV chat export.
var transcriptHeaders = []string{"message_id", "sent_at", "user_id", "user_name", "text"}

// ExportMessages handles GET /groups/{id}/messages/export.
// It returns the group's chat log oldest first: ?format=csv for CSV, JSON
// otherwise. Only members may export.
func (s *Server) ExportMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format != "" && format != "csv" && format != "json" {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("format must be csv or json"))
		return
	}

	msgs, err := s.chat.List(r.Context(), id, viewer(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if format != "csv" {
		writeJSON(w, http.StatusOK, msgs)
		return
	}

	body := transcriptCSV(msgs)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="chat-%s.csv"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body.Bytes())
}

// transcriptCSV encodes msgs with a header row. Times are RFC 3339 in UTC.
func transcriptCSV(msgs []domain.ChatMessage) *bytes.Buffer {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer writes cannot fail.
	cw.Write(transcriptHeaders)
	for _, m := range msgs {
		//nolint:errcheck
		cw.Write([]string{
			m.ID.String(),
			m.SentAt.UTC().Format(time.RFC3339),
			m.UserID,
			m.UserName,
			m.Text,
		})
	}
	cw.Flush()
	return &buf
}
