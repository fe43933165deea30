package services

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/lborres/docauth/core"
	"github.com/lborres/docauth/pkg/crypto"
	"github.com/lborres/docauth/records"
	"github.com/lborres/docauth/store"
)

// SessionManager drives the session lifecycle:
// nonexistent -> active -> (renewed)* -> expired or deleted.
//
// It holds no session state of its own. Every operation is a single store
// round trip, except the lazy-expiry path of Get which adds a best-effort
// delete.
type SessionManager struct {
	deps
	config core.SessionConfig
}

func NewSessionManager(config core.SessionConfig, s store.Store, logger *slog.Logger, metrics core.Recorder) *SessionManager {
	return &SessionManager{
		deps:   newDeps(s, logger, metrics),
		config: config.WithDefaults(),
	}
}

func (sm *SessionManager) Create(ctx context.Context, userID string) (*core.Session, error) {
	if userID == "" {
		return nil, core.ErrUserIDRequired
	}

	// Generate cryptographic material
	sessionToken, err := crypto.GenerateToken()
	if err != nil {
		return nil, err
	}
	accessToken, err := crypto.GenerateToken()
	if err != nil {
		return nil, err
	}

	now := sm.clock()
	expires := now + bson.DateTime(store.Millis(sm.config.MaxAge))

	record := records.SessionRecord{
		UserID:       userID,
		SessionToken: sessionToken,
		AccessToken:  accessToken,
		Expires:      &expires,
		CreatedAt:    &now,
		UpdatedAt:    &now,
	}

	// No retry on a token collision: the unique index reports it.
	session, err := store.InsertOne(ctx, sm.store, records.Sessions, record, records.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	sm.metrics.SessionCreated()
	return session, nil
}

// Get returns the session for sessionToken. An expired session is deleted
// and reported as not found.
func (sm *SessionManager) Get(ctx context.Context, sessionToken string) (*core.Session, error) {
	if sessionToken == "" {
		return nil, nil
	}

	target := store.ByIndex(records.SessionsBySessionToken, sessionToken)
	session, err := store.FindOne(ctx, sm.store, target, records.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	if expired(session.Expires, sm.clock()) {
		sm.purge(ctx, KindSession, store.ByRef(records.Sessions, session.ID))
		sm.metrics.SessionExpired()
		return nil, nil
	}

	return session, nil
}

// Update extends a session to now + MaxAge. Unless force is set, the write
// happens only once the session is older than UpdateAge; otherwise Update
// returns (nil, nil) and the caller keeps its copy. Tokens are never rotated.
func (sm *SessionManager) Update(ctx context.Context, session *core.Session, force bool) (*core.Session, error) {
	if session == nil || session.ID == "" {
		return nil, core.ErrSessionRequired
	}

	now := sm.clock()
	maxAge := bson.DateTime(store.Millis(sm.config.MaxAge))
	updateAge := bson.DateTime(store.Millis(sm.config.UpdateAge))
	current := store.NativeTime(session.Expires)

	if !force && now <= current-maxAge+updateAge {
		sm.logger.Debug("session renewal skipped", slog.String("session_id", session.ID))
		return nil, nil
	}

	expires := max(now+maxAge, current)

	target := store.ByRef(records.Sessions, session.ID)
	updated, err := store.ModifyOne(ctx, sm.store, target, records.SessionRenewal(expires, now), records.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	if updated == nil {
		return nil, nil
	}

	sm.metrics.SessionRenewed()
	return updated, nil
}

// Delete removes the session for sessionToken and returns what was removed.
// Deleting a missing session is not an error.
func (sm *SessionManager) Delete(ctx context.Context, sessionToken string) (*core.Session, error) {
	if sessionToken == "" {
		return nil, nil
	}

	target := store.ByIndex(records.SessionsBySessionToken, sessionToken)
	session, err := store.RemoveOne(ctx, sm.store, target, records.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to delete session: %w", err)
	}
	if session != nil {
		sm.metrics.SessionDeleted()
	}

	return session, nil
}
