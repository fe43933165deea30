// Package docauth manages users, linked accounts, rolling sessions and
// one-time email verification tokens on top of a document store.
package docauth

import (
	"context"
	"log/slog"

	"github.com/lborres/docauth/core"
	"github.com/lborres/docauth/pkg/crypto"
	"github.com/lborres/docauth/records"
	"github.com/lborres/docauth/services"
	"github.com/lborres/docauth/store"
)

// interfaces
type (
	Store              = store.Store
	Sweeper            = store.Sweeper
	HTTPAdapter        = core.HTTPAdapter
	AuthHandler        = core.AuthHandler
	VerificationSender = core.VerificationSender
	Recorder           = core.Recorder
)

// structs
type (
	Config               = core.Config
	Settings             = core.Settings
	SessionConfig        = core.SessionConfig
	RouteConfig          = core.RouteConfig
	VerificationProvider = core.VerificationProvider
	VerificationMessage  = core.VerificationMessage
	SenderFunc           = core.SenderFunc
	NopRecorder          = core.NopRecorder
)

type (
	User                = core.User
	Profile             = core.Profile
	Account             = core.Account
	LinkAccountInput    = core.LinkAccountInput
	Session             = core.Session
	SessionData         = core.SessionData
	VerificationRequest = core.VerificationRequest
)

// Constructors & helpers (convenience re-exports)
var (
	NewMemoryStore       = store.NewMemory
	Indexes              = records.Indexes
	DefaultSessionConfig = core.DefaultSessionConfig
	LoadSettingsFromEnv  = core.LoadSettingsFromEnv
	GenerateToken        = crypto.GenerateToken
)

var (
	ErrUserIDRequired     = core.ErrUserIDRequired
	ErrUserRequired       = core.ErrUserRequired
	ErrSessionRequired    = core.ErrSessionRequired
	ErrIdentifierRequired = core.ErrIdentifierRequired
	ErrTokenRequired      = core.ErrTokenRequired
	ErrProviderRequired   = core.ErrProviderRequired
	ErrSenderRequired     = core.ErrSenderRequired
	ErrDeliveryFailed     = core.ErrDeliveryFailed
	ErrDuplicateKey       = core.ErrDuplicateKey
	ErrInvalidRecord      = core.ErrInvalidRecord
)

var (
	ErrMissingToken      = core.ErrMissingToken
	ErrInvalidToken      = core.ErrInvalidToken
	ErrInvalidAuthHeader = core.ErrInvalidAuthHeader
	ErrInvalidEmail      = core.ErrInvalidEmail
)

var (
	ErrStoreRequired  = core.ErrStoreRequired
	ErrSecretRequired = core.ErrSecretRequired
	ErrSecretTooShort = core.ErrSecretTooShort
)

// DocAuth is the operation surface. It holds no state of its own beyond
// configuration; every record lives in the store.
type DocAuth struct {
	*services.AuthService

	Store        store.Store
	Secret       string
	BasePath     string
	Verification core.VerificationProvider
}

func New(config Config) (*DocAuth, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Set Defaults

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	metrics := config.Metrics
	if metrics == nil {
		metrics = core.NopRecorder{}
	}

	basePath := config.BasePath
	if basePath == "" {
		basePath = core.DefaultBasePath
	}

	verification := config.Verification
	if verification.ID == "" {
		verification.ID = services.ProviderIDEmail
	}
	if verification.MaxAge <= 0 {
		verification.MaxAge = core.DefaultVerificationMaxAge
	}

	auth := services.NewAuthService(config.Store, config.Session.WithDefaults(), logger, metrics)

	d := &DocAuth{
		AuthService:  auth,
		Store:        config.Store,
		Secret:       config.Secret,
		BasePath:     basePath,
		Verification: verification,
	}

	if config.HTTP != nil {
		routes := core.RouteConfig{
			BasePath:     basePath,
			BaseURL:      config.BaseURL,
			Secret:       config.Secret,
			Verification: verification,
		}
		if err := config.HTTP.RegisterRoutes(auth, routes); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// SendVerification issues a verification request through the configured
// provider using the instance secret.
func (d *DocAuth) SendVerification(ctx context.Context, identifier, url, token string) (*VerificationRequest, error) {
	return d.CreateVerificationRequest(ctx, identifier, url, token, d.Secret, d.Verification)
}

// SignIn redeems a token issued by SendVerification.
func (d *DocAuth) SignIn(ctx context.Context, identifier, token string) (*SessionData, error) {
	return d.SignInWithVerification(ctx, identifier, token, d.Secret)
}

// Close releases the store.
func (d *DocAuth) Close(ctx context.Context) error {
	return d.Store.Close(ctx)
}
