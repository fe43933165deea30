package core

import (
	"context"
	"time"
)

// Ports define interfaces for external dependencies

// ============================================
// DELIVERY PORT (verification messages)
// ============================================

// VerificationMessage is handed to a VerificationSender. Token is the raw,
// unhashed token; it is never persisted.
type VerificationMessage struct {
	Identifier string
	URL        string
	Token      string
	ExpiresAt  time.Time
}

// VerificationSender delivers a verification message, typically by email.
type VerificationSender interface {
	SendVerificationRequest(ctx context.Context, msg VerificationMessage) error
}

// SenderFunc adapts a function to VerificationSender.
type SenderFunc func(ctx context.Context, msg VerificationMessage) error

func (f SenderFunc) SendVerificationRequest(ctx context.Context, msg VerificationMessage) error {
	return f(ctx, msg)
}

// VerificationProvider configures one verification channel.
// MaxAge is in seconds.
type VerificationProvider struct {
	ID     string
	MaxAge int64
	Sender VerificationSender
}

// ============================================
// METRICS PORT
// ============================================

// Recorder receives lifecycle events for monitoring.
type Recorder interface {
	SessionCreated()
	SessionRenewed()
	SessionExpired()
	SessionDeleted()
	VerificationCreated()
	VerificationDeliveryFailed()
	VerificationExpired()
	ExpiredPurgeFailed(kind string)
	Swept(collection string, n int64)
}

// NopRecorder discards every event.
type NopRecorder struct{}

var _ Recorder = NopRecorder{}

func (NopRecorder) SessionCreated()             {}
func (NopRecorder) SessionRenewed()             {}
func (NopRecorder) SessionExpired()             {}
func (NopRecorder) SessionDeleted()             {}
func (NopRecorder) VerificationCreated()        {}
func (NopRecorder) VerificationDeliveryFailed() {}
func (NopRecorder) VerificationExpired()        {}
func (NopRecorder) ExpiredPurgeFailed(string)   {}
func (NopRecorder) Swept(string, int64)         {}

// ============================================
// AUTH HANDLER (for HTTP adapters)
// ============================================

// AuthHandler provides the operations HTTP adapters call
type AuthHandler interface {
	CreateUser(ctx context.Context, profile Profile) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, user *User) (*User, error)

	CreateSession(ctx context.Context, userID string) (*Session, error)
	GetSession(ctx context.Context, sessionToken string) (*Session, error)
	UpdateSession(ctx context.Context, session *Session, force bool) (*Session, error)
	DeleteSession(ctx context.Context, sessionToken string) (*Session, error)
	GetSessionData(ctx context.Context, sessionToken string) (*SessionData, error)

	CreateVerificationRequest(ctx context.Context, identifier, url, token, secret string, provider VerificationProvider) (*VerificationRequest, error)
	UseVerificationRequest(ctx context.Context, identifier, token, secret string) (*VerificationRequest, error)
	SignInWithVerification(ctx context.Context, identifier, token, secret string) (*SessionData, error)
}

// ============================================
// HTTP PORT
// ============================================

// RouteConfig carries what HTTP adapters need beyond the handler itself.
type RouteConfig struct {
	BasePath     string
	BaseURL      string
	Secret       string
	Verification VerificationProvider
}

type HTTPAdapter interface {
	RegisterRoutes(handler AuthHandler, cfg RouteConfig) error
}
