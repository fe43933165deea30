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

// VerificationManager issues and redeems one-time verification tokens.
// Only hex(sha256(token + secret)) is stored; the raw token goes to the
// sender and nowhere else.
type VerificationManager struct {
	deps
}

func NewVerificationManager(s store.Store, logger *slog.Logger, metrics core.Recorder) *VerificationManager {
	return &VerificationManager{deps: newDeps(s, logger, metrics)}
}

// Create persists a verification request and then hands the raw token to
// provider.Sender. If sending fails the request stays stored and valid, and
// the returned error wraps core.ErrDeliveryFailed. An empty rawToken is
// replaced by a generated one.
func (vm *VerificationManager) Create(ctx context.Context, identifier, url, rawToken, secret string, provider core.VerificationProvider) (*core.VerificationRequest, error) {
	if identifier == "" {
		return nil, core.ErrIdentifierRequired
	}
	if secret == "" {
		return nil, core.ErrSecretRequired
	}
	if provider.Sender == nil {
		return nil, core.ErrSenderRequired
	}

	if rawToken == "" {
		generated, err := crypto.GenerateToken()
		if err != nil {
			return nil, err
		}
		rawToken = generated
	}

	maxAge := provider.MaxAge
	if maxAge <= 0 {
		maxAge = core.DefaultVerificationMaxAge
	}

	now := vm.clock()
	expires := now + bson.DateTime(store.Millis(maxAge))

	record := records.VerificationRecord{
		Identifier: identifier,
		Token:      crypto.HashVerificationToken(rawToken, secret),
		Expires:    &expires,
		CreatedAt:  &now,
		UpdatedAt:  &now,
	}

	request, err := store.InsertOne(ctx, vm.store, records.VerificationRequests, record, records.VerificationRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to create verification request: %w", err)
	}
	vm.metrics.VerificationCreated()

	msg := core.VerificationMessage{
		Identifier: identifier,
		URL:        url,
		Token:      rawToken,
		ExpiresAt:  request.Expires,
	}
	if err := provider.Sender.SendVerificationRequest(ctx, msg); err != nil {
		vm.logger.Error("verification delivery failed",
			slog.String("provider", provider.ID),
			slog.String("verification_id", request.ID),
			slog.Any("error", err),
		)
		vm.metrics.VerificationDeliveryFailed()
		return nil, fmt.Errorf("%w: %w", core.ErrDeliveryFailed, err)
	}

	return request, nil
}

// Get returns the request matching identifier and rawToken. An expired
// request is deleted and reported as not found.
func (vm *VerificationManager) Get(ctx context.Context, identifier, rawToken, secret string) (*core.VerificationRequest, error) {
	if identifier == "" || rawToken == "" {
		return nil, nil
	}

	request, err := store.FindOne(ctx, vm.store, vm.target(identifier, rawToken, secret), records.VerificationRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to get verification request: %w", err)
	}
	if request == nil {
		return nil, nil
	}

	if expired(request.Expires, vm.clock()) {
		vm.purge(ctx, KindVerificationRequest, store.ByRef(records.VerificationRequests, request.ID))
		vm.metrics.VerificationExpired()
		return nil, nil
	}

	return request, nil
}

// Delete removes the request matching identifier and rawToken and returns
// what was removed.
func (vm *VerificationManager) Delete(ctx context.Context, identifier, rawToken, secret string) (*core.VerificationRequest, error) {
	if identifier == "" || rawToken == "" {
		return nil, nil
	}

	request, err := store.RemoveOne(ctx, vm.store, vm.target(identifier, rawToken, secret), records.VerificationRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to delete verification request: %w", err)
	}
	return request, nil
}

// Use consumes a token in one delete. It returns nil when the token was
// unknown, already used, or expired.
func (vm *VerificationManager) Use(ctx context.Context, identifier, rawToken, secret string) (*core.VerificationRequest, error) {
	request, err := vm.Delete(ctx, identifier, rawToken, secret)
	if err != nil || request == nil {
		return nil, err
	}

	if expired(request.Expires, vm.clock()) {
		vm.metrics.VerificationExpired()
		return nil, nil
	}

	return request, nil
}

func (vm *VerificationManager) target(identifier, rawToken, secret string) store.Target {
	return store.ByIndex(records.VerificationRequestsByToken, identifier, crypto.HashVerificationToken(rawToken, secret))
}
