package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"

	"github.com/lborres/docauth/core"
	"github.com/lborres/docauth/records"
	"github.com/lborres/docauth/store"
)

const ProviderTypeOAuth = "oauth"

type AccountManager struct {
	deps
}

func NewAccountManager(s store.Store, logger *slog.Logger) *AccountManager {
	return &AccountManager{deps: newDeps(s, logger, nil)}
}

// Link stores a provider account for a user. Linking the same
// (provider, provider account) pair twice fails with core.ErrDuplicateKey.
func (am *AccountManager) Link(ctx context.Context, input core.LinkAccountInput) (*core.Account, error) {
	if input.UserID == "" {
		return nil, core.ErrUserIDRequired
	}
	if input.ProviderID == "" || input.ProviderAccountID == "" {
		return nil, core.ErrProviderRequired
	}

	now := am.clock()

	record := records.AccountRecord{
		UserID:             input.UserID,
		ProviderID:         input.ProviderID,
		ProviderType:       input.ProviderType,
		ProviderAccountID:  input.ProviderAccountID,
		RefreshToken:       input.RefreshToken,
		AccessToken:        input.AccessToken,
		AccessTokenExpires: store.NativeTimePtr(input.AccessTokenExpires),
		CreatedAt:          &now,
		UpdatedAt:          &now,
	}

	account, err := store.InsertOne(ctx, am.store, records.Accounts, record, records.Account)
	if err != nil {
		return nil, fmt.Errorf("failed to link account: %w", err)
	}
	return account, nil
}

// Unlink removes the account for the pair and returns what was removed.
func (am *AccountManager) Unlink(ctx context.Context, providerID, providerAccountID string) (*core.Account, error) {
	if providerID == "" || providerAccountID == "" {
		return nil, nil
	}

	target := store.ByIndex(records.AccountsByProviderAccountID, providerID, providerAccountID)
	account, err := store.RemoveOne(ctx, am.store, target, records.Account)
	if err != nil {
		return nil, fmt.Errorf("failed to unlink account: %w", err)
	}
	return account, nil
}

// AccountFromToken builds link input from an OAuth2 token exchange result.
// Empty refresh tokens and zero expiries are left nil.
func AccountFromToken(userID, providerID, providerType, providerAccountID string, token *oauth2.Token) core.LinkAccountInput {
	if providerType == "" {
		providerType = ProviderTypeOAuth
	}

	input := core.LinkAccountInput{
		UserID:            userID,
		ProviderID:        providerID,
		ProviderType:      providerType,
		ProviderAccountID: providerAccountID,
	}
	if token == nil {
		return input
	}

	if token.AccessToken != "" {
		access := token.AccessToken
		input.AccessToken = &access
	}
	if token.RefreshToken != "" {
		refresh := token.RefreshToken
		input.RefreshToken = &refresh
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		input.AccessTokenExpires = &expiry
	}

	return input
}
