// Package domain contains the core data types for the Railway Commuter
// application. This package has no dependencies on other internal packages
// and is imported by every one of them (repo, service, handler).
package domain

import "time"

// Identity is what an identity provider vouches for after sign-in.
// Optional fields are empty strings when the provider did not supply them.
type Identity struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// User is the persisted profile of a signed-in commuter.
type User struct {
	UserID         string          `json:"user_id"`
	Email          string          `json:"email"`
	DisplayName    string          `json:"display_name"`
	PhoneNumber    string          `json:"phone_number,omitempty"`
	FrequentRoutes []FrequentRoute `json:"frequent_routes"`
	CreatedAt      time.Time       `json:"created_at"`

	// Degraded is set on a profile synthesized in memory because the stored
	// copy could not be read or created. It is never persisted.
	Degraded bool `json:"degraded,omitempty"`
}

// FrequentRoute is a train the user travels on often.
type FrequentRoute struct {
	TrainNumber string `json:"train_number"`
	TrainName   string `json:"train_name"`
	Route       string `json:"route"`
}

// ProfileUpdate carries a partial profile update. Nil fields are left as-is.
type ProfileUpdate struct {
	DisplayName    *string
	PhoneNumber    *string
	FrequentRoutes *[]FrequentRoute
}

// NewUserFromIdentity builds the initial profile for a first-time sign-in.
func NewUserFromIdentity(id Identity) User {
	return User{
		UserID:         id.UserID,
		Email:          id.Email,
		DisplayName:    id.DisplayName,
		PhoneNumber:    id.PhoneNumber,
		FrequentRoutes: []FrequentRoute{},
	}
}

// Credential is a locally stored email/password login.
type Credential struct {
	UserID       string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
