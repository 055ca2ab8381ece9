package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/schhatbar/Railway-Commuter/internal/auth"
	"github.com/schhatbar/Railway-Commuter/internal/session"
)

// TokenValidator verifies a session token. Satisfied by *auth.JWTManager.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// accessTokenParam carries the token for clients that cannot set headers,
// such as a browser EventSource.
const accessTokenParam = "access_token"

// RequireAuth rejects requests without a valid session token with 401 and
// stores a signed-in session.Session in the context of the rest.
// The token is read from "Authorization: Bearer <token>", falling back to
// the access_token query parameter.
func RequireAuth(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "sign in required")
				return
			}

			claims, err := v.Validate(token)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "session expired, please sign in again")
				return
			}

			s := session.New(claims.Identity())
			recordUser(r.Context(), s.UserID())
			next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), s)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get(accessTokenParam)
}

// writeJSONError writes the API's standard error body.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
