package handler

import (
	"net/http"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
	"github.com/schhatbar/Railway-Commuter/internal/service"
)

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	PhoneNumber string `json:"phone_number"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type federatedRequest struct {
	IDToken string `json:"id_token"`
}

// AuthResponse is returned by every sign-in endpoint.
type AuthResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Register handles POST /auth/register.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.auth.Register(r.Context(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthResponse{Token: res.Token, User: res.User})
}

// Login handles POST /auth/login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{Token: res.Token, User: res.User})
}

// FederatedLogin handles POST /auth/federated with a Firebase ID token.
func (s *Server) FederatedLogin(w http.ResponseWriter, r *http.Request) {
	var req federatedRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.auth.FederatedLogin(r.Context(), req.IDToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{Token: res.Token, User: res.User})
}

// Logout handles POST /auth/logout. Session tokens are stateless, so the
// client discards its token and there is nothing to revoke here.
func (s *Server) Logout(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
