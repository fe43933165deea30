package core

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/lborres/docauth/store"
)

const (
	DefaultSessionMaxAge      int64 = 30 * 24 * 60 * 60 // 30 days
	DefaultSessionUpdateAge   int64 = 24 * 60 * 60      // 1 day
	DefaultVerificationMaxAge int64 = 24 * 60 * 60      // 1 day
	DefaultBasePath                 = "/api/auth"
	MinSecretLength                 = 32
)

// SessionConfig holds session ages in seconds.
//
// A session is renewed at most once per UpdateAge: UpdateSession writes only
// when now > expires - MaxAge + UpdateAge.
type SessionConfig struct {
	MaxAge    int64
	UpdateAge int64
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxAge:    DefaultSessionMaxAge,
		UpdateAge: DefaultSessionUpdateAge,
	}
}

// WithDefaults replaces non-positive ages with the defaults.
func (c SessionConfig) WithDefaults() SessionConfig {
	if c.MaxAge <= 0 {
		c.MaxAge = DefaultSessionMaxAge
	}
	if c.UpdateAge <= 0 {
		c.UpdateAge = DefaultSessionUpdateAge
	}
	return c
}

type Config struct {
	Secret string

	Store store.Store

	// Optional config
	HTTP         HTTPAdapter
	Session      SessionConfig
	Verification VerificationProvider
	Logger       *slog.Logger
	Metrics      Recorder
	BasePath     string
	BaseURL      string
}

// Validate checks required fields.
func (c Config) Validate() error {
	if c.Secret == "" {
		return ErrSecretRequired
	}
	if len(c.Secret) < MinSecretLength {
		return fmt.Errorf("%w - minimum of %d characters", ErrSecretTooShort, MinSecretLength)
	}
	if c.Store == nil {
		return ErrStoreRequired
	}
	return nil
}

// Settings is the environment-driven part of Config.
type Settings struct {
	Secret             string        `env:"DOCAUTH_SECRET,required,notEmpty"`
	SessionMaxAge      int64         `env:"DOCAUTH_SESSION_MAX_AGE"      envDefault:"2592000"`
	SessionUpdateAge   int64         `env:"DOCAUTH_SESSION_UPDATE_AGE"   envDefault:"86400"`
	VerificationMaxAge int64         `env:"DOCAUTH_VERIFICATION_MAX_AGE" envDefault:"86400"`
	BasePath           string        `env:"DOCAUTH_BASE_PATH"            envDefault:"/api/auth"`
	BaseURL            string        `env:"DOCAUTH_BASE_URL"             envDefault:"http://localhost:8080"`
	SweepInterval      time.Duration `env:"DOCAUTH_SWEEP_INTERVAL"       envDefault:"0s"`
}

// LoadSettingsFromEnv parses Settings from the process environment.
func LoadSettingsFromEnv() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	if s.VerificationMaxAge <= 0 {
		s.VerificationMaxAge = DefaultVerificationMaxAge
	}
	return s, nil
}

// SessionConfig returns the session ages with defaults applied.
func (s Settings) SessionConfig() SessionConfig {
	return SessionConfig{
		MaxAge:    s.SessionMaxAge,
		UpdateAge: s.SessionUpdateAge,
	}.WithDefaults()
}

// Apply copies the settings onto cfg. The store, sender and other wiring are
// left to the caller.
func (s Settings) Apply(cfg Config) Config {
	cfg.Secret = s.Secret
	cfg.Session = s.SessionConfig()
	cfg.Verification.MaxAge = s.VerificationMaxAge
	cfg.BasePath = s.BasePath
	cfg.BaseURL = s.BaseURL
	return cfg
}
