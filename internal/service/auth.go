package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/schhatbar/Railway-Commuter/internal/auth"
	"github.com/schhatbar/Railway-Commuter/internal/domain"
	"github.com/schhatbar/Railway-Commuter/internal/repo"
)

// TokenIssuer signs session tokens. Satisfied by *auth.JWTManager.
type TokenIssuer interface {
	Generate(id domain.Identity) (string, error)
}

// IdentityVerifier verifies a federated identity-provider token.
// Satisfied by *auth.FirebaseVerifier.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (domain.Identity, error)
}

// RegisterInput is a new email/password account.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	PhoneNumber string
}

// AuthResult is a signed session token and the bootstrapped profile.
type AuthResult struct {
	Token string
	User  domain.User
}

var errBadCredentials = fmt.Errorf("%w: invalid email or password", domain.ErrUnauthenticated)

// AuthService signs commuters up and in. Sign-out is client-side: session
// tokens are stateless and simply discarded.
type AuthService struct {
	creds     repo.CredentialRepo
	profiles  *ProfileService
	tokens    TokenIssuer
	federated IdentityVerifier
	newID     func() string
}

// NewAuthService constructs an AuthService. federated may be nil, in which
// case FederatedLogin reports that the provider is not enabled.
func NewAuthService(creds repo.CredentialRepo, profiles *ProfileService, tokens TokenIssuer, federated IdentityVerifier) *AuthService {
	return &AuthService{
		creds:     creds,
		profiles:  profiles,
		tokens:    tokens,
		federated: federated,
		newID:     uuid.NewString,
	}
}

// Register creates a local credential and the profile for it.
// Returns domain.ErrConflict if the email is already registered.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := validateRegistration(in); err != nil {
		return AuthResult{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("service.AuthService.Register: %w", err)
	}

	id := domain.Identity{
		UserID:      s.newID(),
		Email:       in.Email,
		DisplayName: in.DisplayName,
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
	}
	cred := domain.Credential{UserID: id.UserID, Email: in.Email, PasswordHash: hash}
	if err := s.creds.Create(ctx, cred); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return AuthResult{}, fmt.Errorf("%w: an account with this email already exists", domain.ErrConflict)
		}
		return AuthResult{}, fmt.Errorf("service.AuthService.Register: %w", err)
	}

	return s.signIn(ctx, id)
}

// Login verifies an email/password pair. Unknown emails and wrong passwords
// are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	cred, err := s.creds.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return AuthResult{}, errBadCredentials
		}
		return AuthResult{}, fmt.Errorf("service.AuthService.Login: %w", err)
	}
	if err := auth.CheckPassword(cred.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return AuthResult{}, errBadCredentials
		}
		return AuthResult{}, fmt.Errorf("service.AuthService.Login: %w", err)
	}

	return s.signIn(ctx, domain.Identity{UserID: cred.UserID, Email: cred.Email})
}

// FederatedLogin verifies an identity-provider token (Google via Firebase)
// and bootstraps the profile on first sign-in.
func (s *AuthService) FederatedLogin(ctx context.Context, idToken string) (AuthResult, error) {
	if s.federated == nil {
		return AuthResult{}, fmt.Errorf("%w: Google sign-in is not enabled, please use email/password sign-in", domain.ErrForbidden)
	}
	if strings.TrimSpace(idToken) == "" {
		return AuthResult{}, fmt.Errorf("%w: id_token is required", domain.ErrValidation)
	}

	id, err := s.federated.Verify(ctx, idToken)
	if err != nil {
		return AuthResult{}, fmt.Errorf("service.AuthService.FederatedLogin: %w", err)
	}
	return s.signIn(ctx, id)
}

func (s *AuthService) signIn(ctx context.Context, id domain.Identity) (AuthResult, error) {
	u := s.profiles.Bootstrap(ctx, id)

	// The profile is authoritative for display fields once it exists.
	id.DisplayName = u.DisplayName
	if u.Email != "" {
		id.Email = u.Email
	}
	id.PhoneNumber = u.PhoneNumber

	token, err := s.tokens.Generate(id)
	if err != nil {
		return AuthResult{}, fmt.Errorf("service.AuthService.signIn: %w", err)
	}
	return AuthResult{Token: token, User: u}, nil
}

func validateRegistration(in RegisterInput) error {
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return fmt.Errorf("%w: a valid email is required", domain.ErrValidation)
	}
	if len(in.Password) < auth.MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, auth.MinPasswordLength)
	}
	if in.DisplayName == "" {
		return fmt.Errorf("%w: display_name is required", domain.ErrValidation)
	}
	return nil
}
