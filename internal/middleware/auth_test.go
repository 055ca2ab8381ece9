package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schhatbar/Railway-Commuter/internal/auth"
	"github.com/schhatbar/Railway-Commuter/internal/domain"
	"github.com/schhatbar/Railway-Commuter/internal/middleware"
	"github.com/schhatbar/Railway-Commuter/internal/session"
)

// stubValidator accepts only the token "good".
type stubValidator struct {
	id  domain.Identity
	got string
}

func (s *stubValidator) Validate(token string) (*auth.Claims, error) {
	s.got = token
	if token != "good" {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{
		Email:            s.id.Email,
		DisplayName:      s.id.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{Subject: s.id.UserID},
	}, nil
}

var _ middleware.TokenValidator = (*stubValidator)(nil)

func sessionEcho(got **session.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = session.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_BearerHeader(t *testing.T) {
	v := &stubValidator{id: domain.Identity{UserID: "u-1", DisplayName: "Asha"}}
	var got *session.Session
	h := middleware.RequireAuth(v)(sessionEcho(&got))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, session.SignedIn, got.State)
	assert.Equal(t, "u-1", got.UserID())
	assert.Equal(t, "Asha", got.Identity.DisplayName)
}

func TestRequireAuth_QueryParamForStreams(t *testing.T) {
	v := &stubValidator{id: domain.Identity{UserID: "u-1"}}
	var got *session.Session
	h := middleware.RequireAuth(v)(sessionEcho(&got))

	req := httptest.NewRequest(http.MethodGet, "/groups/x/stream?access_token=good", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "good", v.got)
}

func TestRequireAuth_Rejects(t *testing.T) {
	cases := map[string]string{
		"missing":      "",
		"wrong scheme": "Basic Z29vZA==",
		"bad token":    "Bearer forged",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
			h := middleware.RequireAuth(&stubValidator{})(next)

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"code":"unauthenticated"`)
			assert.False(t, called)
		})
	}
}

func TestRequireAuth_ValidatorErrorIsNotLeaked(t *testing.T) {
	v := &stubValidator{}
	h := middleware.RequireAuth(v)(trivialHandler)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.NotContains(t, rec.Body.String(), auth.ErrInvalidToken.Error())
}
