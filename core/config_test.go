package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lborres/docauth/store"
)

// Requirement: Validate rejects missing or short secrets and a missing store.
func TestConfig_Validate(t *testing.T) {
	secret := strings.Repeat("s", MinSecretLength)

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{name: "valid", cfg: Config{Secret: secret, Store: store.NewMemory()}},
		{name: "missing secret", cfg: Config{Store: store.NewMemory()}, wantErr: ErrSecretRequired},
		{name: "short secret", cfg: Config{Secret: "short", Store: store.NewMemory()}, wantErr: ErrSecretTooShort},
		{name: "missing store", cfg: Config{Secret: secret}, wantErr: ErrStoreRequired},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.cfg.Validate()
			if test.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, test.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, test.wantErr)
			}
		})
	}
}

// Requirement: zero or negative session ages fall back to the defaults.
func TestSessionConfig_WithDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   SessionConfig
		want SessionConfig
	}{
		{name: "zero", in: SessionConfig{}, want: DefaultSessionConfig()},
		{name: "negative", in: SessionConfig{MaxAge: -1, UpdateAge: -5}, want: DefaultSessionConfig()},
		{name: "custom kept", in: SessionConfig{MaxAge: 60, UpdateAge: 10}, want: SessionConfig{MaxAge: 60, UpdateAge: 10}},
		{name: "partial", in: SessionConfig{MaxAge: 60}, want: SessionConfig{MaxAge: 60, UpdateAge: DefaultSessionUpdateAge}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.in.WithDefaults(); got != test.want {
				t.Errorf("WithDefaults() = %+v, want %+v", got, test.want)
			}
		})
	}
}

// Requirement: settings load from the environment with documented defaults.
func TestLoadSettingsFromEnv_Defaults(t *testing.T) {
	// Arrange
	t.Setenv("DOCAUTH_SECRET", "env-secret")

	// Act
	s, err := LoadSettingsFromEnv()

	// Assert
	if err != nil {
		t.Fatalf("LoadSettingsFromEnv() error = %v", err)
	}
	if s.Secret != "env-secret" {
		t.Errorf("Secret = %q", s.Secret)
	}
	if s.SessionMaxAge != DefaultSessionMaxAge {
		t.Errorf("SessionMaxAge = %d, want %d", s.SessionMaxAge, DefaultSessionMaxAge)
	}
	if s.SessionUpdateAge != DefaultSessionUpdateAge {
		t.Errorf("SessionUpdateAge = %d, want %d", s.SessionUpdateAge, DefaultSessionUpdateAge)
	}
	if s.VerificationMaxAge != DefaultVerificationMaxAge {
		t.Errorf("VerificationMaxAge = %d, want %d", s.VerificationMaxAge, DefaultVerificationMaxAge)
	}
	if s.BasePath != DefaultBasePath {
		t.Errorf("BasePath = %q, want %q", s.BasePath, DefaultBasePath)
	}
	if s.SweepInterval != 0 {
		t.Errorf("SweepInterval = %v, want 0", s.SweepInterval)
	}
}

func TestLoadSettingsFromEnv_Overrides(t *testing.T) {
	t.Setenv("DOCAUTH_SECRET", "env-secret")
	t.Setenv("DOCAUTH_SESSION_MAX_AGE", "3600")
	t.Setenv("DOCAUTH_SESSION_UPDATE_AGE", "0")
	t.Setenv("DOCAUTH_SWEEP_INTERVAL", "5m")
	t.Setenv("DOCAUTH_BASE_PATH", "/auth")

	s, err := LoadSettingsFromEnv()
	if err != nil {
		t.Fatalf("LoadSettingsFromEnv() error = %v", err)
	}

	sc := s.SessionConfig()
	if sc.MaxAge != 3600 {
		t.Errorf("MaxAge = %d, want 3600", sc.MaxAge)
	}
	if sc.UpdateAge != DefaultSessionUpdateAge {
		t.Errorf("UpdateAge = %d, want default %d", sc.UpdateAge, DefaultSessionUpdateAge)
	}
	if s.SweepInterval != 5*time.Minute {
		t.Errorf("SweepInterval = %v, want 5m", s.SweepInterval)
	}

	cfg := s.Apply(Config{})
	if cfg.BasePath != "/auth" || cfg.Secret != "env-secret" || cfg.Session != sc {
		t.Errorf("Apply() = %+v", cfg)
	}
}

func TestLoadSettingsFromEnv_MissingSecret(t *testing.T) {
	t.Setenv("DOCAUTH_SECRET", "")

	if _, err := LoadSettingsFromEnv(); err == nil {
		t.Fatal("LoadSettingsFromEnv() error = nil, want missing secret error")
	}
}
