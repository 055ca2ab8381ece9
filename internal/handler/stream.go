package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
	"github.com/schhatbar/Railway-Commuter/internal/metrics"
	"github.com/schhatbar/Railway-Commuter/internal/service"
)

// Server-sent event names.
const (
	eventGroup    = "group"
	eventMessages = "messages"
	eventError    = "error"
)

// sseStream writes server-sent events. Only the request goroutine writes.
type sseStream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
	id int
}

// openStream sends the event-stream headers and lifts the server's write
// deadline, which would otherwise cut a long-lived stream.
func openStream(w http.ResponseWriter) (*sseStream, error) {
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return nil, err
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	s := &sseStream{w: w, rc: rc}
	return s, s.flush()
}

func (s *sseStream) send(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.id++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.id, event, data); err != nil {
		return err
	}
	return s.flush()
}

func (s *sseStream) comment(text string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	return s.flush()
}

func (s *sseStream) flush() error {
	if err := s.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

// offer replaces any pending value in ch with v. Subscribers always deliver
// the full current state, so an unread older value can be dropped.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// pump streams values from a subscription until the client goes away or the
// subscription reports an error, which is sent as a final error event.
func pump[T any](s *Server, w http.ResponseWriter, r *http.Request, kind, event string, updates <-chan T, errs <-chan error, sub *service.Subscription) {
	defer sub.Cancel()

	stream, err := openStream(w)
	if err != nil {
		s.log.WarnContext(r.Context(), "open event stream", "error", err)
		return
	}

	gauge := metrics.OpenStreams.WithLabelValues(kind)
	gauge.Inc()
	defer gauge.Dec()

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.closing:
			return
		case v := <-updates:
			if err := stream.send(event, v); err != nil {
				return
			}
		case err := <-errs:
			_, body := s.errorBody(r, err)
			_ = stream.send(eventError, body.Error)
			return
		case <-heartbeat.C:
			if err := stream.comment("keep-alive"); err != nil {
				return
			}
		}
	}
}

// StreamGroup handles GET /groups/{id}/stream: a "group" event with the full
// group now and after every membership change. If the group is deleted the
// stream ends with an "error" event.
func (s *Server) StreamGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	updates := make(chan GroupResponse, 1)
	errs := make(chan error, 1)
	sub, err := s.groups.SubscribeToGroup(r.Context(), id,
		func(g domain.Group) { offer(updates, groupToResponse(g)) },
		func(err error) { offer(errs, err) },
	)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pump(s, w, r, "group", eventGroup, updates, errs, sub)
}

// StreamMessages handles GET /groups/{id}/messages/stream: a "messages" event
// with the group's whole ordered chat log now and after every new message.
func (s *Server) StreamMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	updates := make(chan []domain.ChatMessage, 1)
	errs := make(chan error, 1)
	sub, err := s.chat.SubscribeToMessages(r.Context(), id, viewer(r).UserID,
		func(msgs []domain.ChatMessage) { offer(updates, msgs) },
		func(err error) { offer(errs, err) },
	)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pump(s, w, r, "messages", eventMessages, updates, errs, sub)
}
