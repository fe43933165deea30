package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lborres/docauth/core"
	"github.com/lborres/docauth/records"
	"github.com/lborres/docauth/store"
)

type UserManager struct {
	deps
}

func NewUserManager(s store.Store, logger *slog.Logger) *UserManager {
	return &UserManager{deps: newDeps(s, logger, nil)}
}

// Create stores a new user from profile. A taken email fails with
// core.ErrDuplicateKey.
func (um *UserManager) Create(ctx context.Context, profile core.Profile) (*core.User, error) {
	now := um.clock()

	record := records.UserRecord{
		Name:          profile.Name,
		Email:         profile.Email,
		Image:         profile.Image,
		EmailVerified: store.NativeTimePtr(profile.EmailVerified),
		CreatedAt:     &now,
		UpdatedAt:     &now,
	}

	user, err := store.InsertOne(ctx, um.store, records.Users, record, records.User)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (um *UserManager) Get(ctx context.Context, id string) (*core.User, error) {
	if id == "" {
		return nil, nil
	}

	user, err := store.FindOne(ctx, um.store, store.ByRef(records.Users, id), records.User)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (um *UserManager) GetByEmail(ctx context.Context, email string) (*core.User, error) {
	if email == "" {
		return nil, nil
	}

	user, err := store.FindOne(ctx, um.store, store.ByIndex(records.UsersByEmail, email), records.User)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetByProviderAccountID resolves the linked account first, then its user.
// An account whose user is gone yields nil.
func (um *UserManager) GetByProviderAccountID(ctx context.Context, providerID, providerAccountID string) (*core.User, error) {
	if providerID == "" || providerAccountID == "" {
		return nil, nil
	}

	target := store.ByIndex(records.AccountsByProviderAccountID, providerID, providerAccountID)
	account, err := store.FindOne(ctx, um.store, target, records.Account)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, nil
	}

	return um.Get(ctx, account.UserID)
}

// Update writes the mutable fields of user and returns the stored result,
// or nil when the user no longer exists.
func (um *UserManager) Update(ctx context.Context, user *core.User) (*core.User, error) {
	if user == nil {
		return nil, core.ErrUserRequired
	}
	if user.ID == "" {
		return nil, core.ErrUserIDRequired
	}

	next := *user
	next.UpdatedAt = store.WallTime(um.clock())

	target := store.ByRef(records.Users, user.ID)
	updated, err := store.ModifyOne(ctx, um.store, target, records.UserUpdate(&next), records.User)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}

// Delete removes a user. Accounts and sessions are left in place.
func (um *UserManager) Delete(ctx context.Context, id string) (*core.User, error) {
	if id == "" {
		return nil, nil
	}

	user, err := store.RemoveOne(ctx, um.store, store.ByRef(records.Users, id), records.User)
	if err != nil {
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}
	return user, nil
}
