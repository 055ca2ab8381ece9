// Package middleware provides HTTP middleware for the Railway Commuter API server.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewSlogLogger returns a middleware that logs one structured line per
// request: method, path, status, duration, the chi request ID and, once
// RequireAuth has run further down the chain, the signed-in user.
//
// Wire it after chimiddleware.RequestID so the request ID is available.
func NewSlogLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			holder := &userHolder{}
			ctx := context.WithValue(r.Context(), userHolderKey{}, holder)
			next.ServeHTTP(ww, r.WithContext(ctx))

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimiddleware.GetReqID(r.Context()),
			}
			if holder.userID != "" {
				attrs = append(attrs, "user_id", holder.userID)
			}
			log.InfoContext(r.Context(), "request", attrs...)
		})
	}
}

// userHolder carries the authenticated user back up to the access logger,
// whose context is an ancestor of the one holding the session.
type userHolder struct {
	userID string
}

type userHolderKey struct{}

func recordUser(ctx context.Context, userID string) {
	if h, ok := ctx.Value(userHolderKey{}).(*userHolder); ok {
		h.userID = userID
	}
}
