package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
)

// FirebaseVerifier verifies Firebase ID tokens issued to the web client after
// a Google sign-in.
type FirebaseVerifier struct {
	client *fbauth.Client
}

// NewFirebaseVerifier creates a verifier from an initialized Firebase app.
func NewFirebaseVerifier(ctx context.Context, app *firebase.App) (*FirebaseVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth.NewFirebaseVerifier: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

// Verify checks idToken and returns the identity it carries.
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (domain.Identity, error) {
	tok, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("auth.FirebaseVerifier.Verify: %w", mapFirebaseError(err))
	}
	return identityFromClaims(tok.UID, tok.Claims), nil
}

func identityFromClaims(uid string, claims map[string]any) domain.Identity {
	str := func(key string) string {
		s, _ := claims[key].(string)
		return s
	}
	return domain.Identity{
		UserID:      uid,
		Email:       str("email"),
		DisplayName: str("name"),
		PhoneNumber: str("phone_number"),
	}
}

// mapFirebaseError turns known provider failures into readable
// ErrUnauthenticated errors. Unknown errors pass through unchanged.
func mapFirebaseError(err error) error {
	switch {
	case fbauth.IsIDTokenExpired(err):
		return fmt.Errorf("%w: your sign-in has expired, please sign in again", domain.ErrUnauthenticated)
	case fbauth.IsIDTokenRevoked(err):
		return fmt.Errorf("%w: this sign-in was revoked, please sign in again", domain.ErrUnauthenticated)
	case fbauth.IsUserDisabled(err):
		return fmt.Errorf("%w: this account has been disabled", domain.ErrUnauthenticated)
	case fbauth.IsIDTokenInvalid(err):
		return fmt.Errorf("%w: the sign-in token is not valid", domain.ErrUnauthenticated)
	}
	return err
}
