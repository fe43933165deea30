package core

import "time"

// User represents a user in the system
//
// This is the "identity" - who someone is
type User struct {
	ID            string     `json:"id"`
	Name          *string    `json:"name,omitempty"`
	Email         *string    `json:"email,omitempty"`
	Image         *string    `json:"image,omitempty"`
	EmailVerified *time.Time `json:"emailVerified,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Profile is the input to CreateUser
type Profile struct {
	Name          *string    `json:"name,omitempty"`
	Email         *string    `json:"email,omitempty"`
	Image         *string    `json:"image,omitempty"`
	EmailVerified *time.Time `json:"emailVerified,omitempty"`
}

// Account represents a linked provider identity
//
// This is the "credential" - how someone proves who they are
type Account struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"userId"`
	ProviderID         string     `json:"providerId"`   // "google", "github", "email"
	ProviderType       string     `json:"providerType"` // "oauth", "email", "credentials"
	ProviderAccountID  string     `json:"providerAccountId"`
	RefreshToken       *string    `json:"-"` // Never expose in JSON
	AccessToken        *string    `json:"-"` // Never expose in JSON
	AccessTokenExpires *time.Time `json:"accessTokenExpires,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// LinkAccountInput is the input to LinkAccount
type LinkAccountInput struct {
	UserID             string
	ProviderID         string
	ProviderType       string
	ProviderAccountID  string
	RefreshToken       *string
	AccessToken        *string
	AccessTokenExpires *time.Time
}

// Session represents an active login session
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	SessionToken string    `json:"sessionToken"`
	AccessToken  string    `json:"accessToken"`
	Expires      time.Time `json:"expires"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// VerificationRequest is a pending one-time email verification.
// Token holds the hash, never the raw value sent to the user.
type VerificationRequest struct {
	ID         string    `json:"id"`
	Identifier string    `json:"identifier"`
	Token      string    `json:"-"` // hashed
	Expires    time.Time `json:"expires"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SessionData combines user and session info
// The model returned to clients
type SessionData struct {
	User    *User    `json:"user"`
	Session *Session `json:"session"`
}
