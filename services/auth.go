package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lborres/docauth/core"
	"github.com/lborres/docauth/store"
)

// ProviderIDEmail identifies accounts created through email verification.
const ProviderIDEmail = "email"

// AuthService exposes the full operation surface over one store.
type AuthService struct {
	Users         *UserManager
	Accounts      *AccountManager
	Sessions      *SessionManager
	Verifications *VerificationManager

	logger *slog.Logger
}

// Ensure AuthService implements AuthHandler
var _ core.AuthHandler = (*AuthService)(nil)

func NewAuthService(s store.Store, config core.SessionConfig, logger *slog.Logger, metrics core.Recorder) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		Users:         NewUserManager(s, logger),
		Accounts:      NewAccountManager(s, logger),
		Sessions:      NewSessionManager(config, s, logger, metrics),
		Verifications: NewVerificationManager(s, logger, metrics),
		logger:        logger,
	}
}

// setClock points every manager at the same time source.
func (s *AuthService) setClock(now func() time.Time) {
	s.Users.now = now
	s.Accounts.now = now
	s.Sessions.now = now
	s.Verifications.now = now
}

// ============================================
// USERS
// ============================================

func (s *AuthService) CreateUser(ctx context.Context, profile core.Profile) (*core.User, error) {
	return s.Users.Create(ctx, profile)
}

func (s *AuthService) GetUser(ctx context.Context, id string) (*core.User, error) {
	return s.Users.Get(ctx, id)
}

func (s *AuthService) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return s.Users.GetByEmail(ctx, email)
}

func (s *AuthService) GetUserByProviderAccountID(ctx context.Context, providerID, providerAccountID string) (*core.User, error) {
	return s.Users.GetByProviderAccountID(ctx, providerID, providerAccountID)
}

func (s *AuthService) UpdateUser(ctx context.Context, user *core.User) (*core.User, error) {
	return s.Users.Update(ctx, user)
}

func (s *AuthService) DeleteUser(ctx context.Context, id string) (*core.User, error) {
	return s.Users.Delete(ctx, id)
}

// ============================================
// ACCOUNTS
// ============================================

func (s *AuthService) LinkAccount(ctx context.Context, input core.LinkAccountInput) (*core.Account, error) {
	return s.Accounts.Link(ctx, input)
}

func (s *AuthService) UnlinkAccount(ctx context.Context, providerID, providerAccountID string) (*core.Account, error) {
	return s.Accounts.Unlink(ctx, providerID, providerAccountID)
}

// ============================================
// SESSIONS
// ============================================

func (s *AuthService) CreateSession(ctx context.Context, userID string) (*core.Session, error) {
	return s.Sessions.Create(ctx, userID)
}

func (s *AuthService) GetSession(ctx context.Context, sessionToken string) (*core.Session, error) {
	return s.Sessions.Get(ctx, sessionToken)
}

func (s *AuthService) UpdateSession(ctx context.Context, session *core.Session, force bool) (*core.Session, error) {
	return s.Sessions.Update(ctx, session, force)
}

func (s *AuthService) DeleteSession(ctx context.Context, sessionToken string) (*core.Session, error) {
	return s.Sessions.Delete(ctx, sessionToken)
}

// GetSessionData resolves a session token to its session and user, renewing
// the session when it is due. A session whose user is gone yields nil.
func (s *AuthService) GetSessionData(ctx context.Context, sessionToken string) (*core.SessionData, error) {
	session, err := s.Sessions.Get(ctx, sessionToken)
	if err != nil || session == nil {
		return nil, err
	}

	renewed, err := s.Sessions.Update(ctx, session, false)
	if err != nil {
		return nil, err
	}
	if renewed != nil {
		session = renewed
	}

	user, err := s.Users.Get(ctx, session.UserID)
	if err != nil || user == nil {
		return nil, err
	}

	return &core.SessionData{User: user, Session: session}, nil
}

// ============================================
// VERIFICATION
// ============================================

func (s *AuthService) CreateVerificationRequest(ctx context.Context, identifier, url, token, secret string, provider core.VerificationProvider) (*core.VerificationRequest, error) {
	return s.Verifications.Create(ctx, identifier, url, token, secret, provider)
}

func (s *AuthService) GetVerificationRequest(ctx context.Context, identifier, token, secret string) (*core.VerificationRequest, error) {
	return s.Verifications.Get(ctx, identifier, token, secret)
}

func (s *AuthService) DeleteVerificationRequest(ctx context.Context, identifier, token, secret string) (*core.VerificationRequest, error) {
	return s.Verifications.Delete(ctx, identifier, token, secret)
}

func (s *AuthService) UseVerificationRequest(ctx context.Context, identifier, token, secret string) (*core.VerificationRequest, error) {
	return s.Verifications.Use(ctx, identifier, token, secret)
}

// SignInWithVerification consumes a verification token for an email
// identifier, then finds or creates the user, marks the email verified and
// opens a session. It returns nil when the token is unknown or expired.
func (s *AuthService) SignInWithVerification(ctx context.Context, identifier, token, secret string) (*core.SessionData, error) {
	request, err := s.Verifications.Use(ctx, identifier, token, secret)
	if err != nil || request == nil {
		return nil, err
	}

	// Step 1: Find or create the user
	user, err := s.Users.GetByEmail(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		email := identifier
		user, err = s.Users.Create(ctx, core.Profile{Email: &email})
		if err != nil {
			return nil, err
		}
		// Step 2: Record the email provider link
		input := core.LinkAccountInput{
			UserID:            user.ID,
			ProviderID:        ProviderIDEmail,
			ProviderType:      ProviderIDEmail,
			ProviderAccountID: identifier,
		}
		if _, err := s.Accounts.Link(ctx, input); err != nil {
			return nil, fmt.Errorf("failed to link email account: %w", err)
		}
	}

	// Step 3: Mark the email verified
	if user.EmailVerified == nil {
		verified := store.WallTime(s.Sessions.clock())
		user.EmailVerified = &verified
		updated, err := s.Users.Update(ctx, user)
		if err != nil {
			return nil, err
		}
		if updated != nil {
			user = updated
		}
	}

	// Step 4: Open a session
	session, err := s.Sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("signed in with verification", slog.String("user_id", user.ID))
	return &core.SessionData{User: user, Session: session}, nil
}
