package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/lborres/docauth/core"
)

func strPtr(s string) *string { return &s }

func newTestUserManager() (*UserManager, *FakeStore, *fakeClock) {
	fs := NewFakeStore()
	clock := newFakeClock(testEpoch)
	um := NewUserManager(fs, nil)
	um.now = clock.Now
	return um, fs, clock
}

// Requirement: CreateUser echoes its input with a fresh id.
func TestUserManager_Create(t *testing.T) {
	verified := testEpoch.Add(-time.Hour)

	tests := []struct {
		name    string
		profile core.Profile
	}{
		{
			name: "full profile",
			profile: core.Profile{
				Name:          strPtr("Ada"),
				Email:         strPtr("ada@example.com"),
				Image:         strPtr("https://example.com/ada.png"),
				EmailVerified: &verified,
			},
		},
		{name: "empty profile", profile: core.Profile{}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			um, _, _ := newTestUserManager()

			// Act
			user, err := um.Create(context.Background(), test.profile)

			// Assert
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			want := &core.User{
				ID:            user.ID,
				Name:          test.profile.Name,
				Email:         test.profile.Email,
				Image:         test.profile.Image,
				EmailVerified: test.profile.EmailVerified,
				CreatedAt:     testEpoch,
				UpdatedAt:     testEpoch,
			}
			if user.ID == "" {
				t.Error("user ID is empty")
			}
			if !reflect.DeepEqual(user, want) {
				t.Errorf("Create() = %+v, want %+v", user, want)
			}
		})
	}
}

func TestUserManager_Create_Unique(t *testing.T) {
	um, _, _ := newTestUserManager()
	ctx := context.Background()

	a, _ := um.Create(ctx, core.Profile{Name: strPtr("A")})
	b, _ := um.Create(ctx, core.Profile{Name: strPtr("B")})
	if a.ID == b.ID {
		t.Error("users must get distinct ids")
	}

	if _, err := um.Create(ctx, core.Profile{Email: strPtr("ada@example.com")}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err := um.Create(ctx, core.Profile{Email: strPtr("ada@example.com")})
	if !errors.Is(err, core.ErrDuplicateKey) {
		t.Errorf("Create() duplicate email error = %v, want ErrDuplicateKey", err)
	}
}

func TestUserManager_Lookups(t *testing.T) {
	// Arrange
	um, _, _ := newTestUserManager()
	ctx := context.Background()
	user, _ := um.Create(ctx, core.Profile{Email: strPtr("ada@example.com")})

	tests := []struct {
		name   string
		lookup func() (*core.User, error)
		want   *core.User
	}{
		{name: "by id", lookup: func() (*core.User, error) { return um.Get(ctx, user.ID) }, want: user},
		{name: "by unknown id", lookup: func() (*core.User, error) { return um.Get(ctx, "missing") }},
		{name: "by empty id", lookup: func() (*core.User, error) { return um.Get(ctx, "") }},
		{name: "by email", lookup: func() (*core.User, error) { return um.GetByEmail(ctx, "ada@example.com") }, want: user},
		{name: "by unknown email", lookup: func() (*core.User, error) { return um.GetByEmail(ctx, "bob@example.com") }},
		{name: "by empty email", lookup: func() (*core.User, error) { return um.GetByEmail(ctx, "") }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			// Act
			got, err := test.lookup()

			// Assert
			if err != nil {
				t.Fatalf("lookup error = %v", err)
			}
			if !reflect.DeepEqual(got, test.want) {
				t.Errorf("lookup = %+v, want %+v", got, test.want)
			}
		})
	}
}

// Requirement: provider account lookup resolves the account, then its user.
func TestUserManager_GetByProviderAccountID(t *testing.T) {
	// Arrange
	fs := NewFakeStore()
	um := NewUserManager(fs, nil)
	am := NewAccountManager(fs, nil)
	ctx := context.Background()

	user, _ := um.Create(ctx, core.Profile{Name: strPtr("Ada")})
	if _, err := am.Link(ctx, core.LinkAccountInput{UserID: user.ID, ProviderID: "github", ProviderType: "oauth", ProviderAccountID: "42"}); err != nil {
		t.Fatalf("Link() error = %v", err)
	}
	if _, err := am.Link(ctx, core.LinkAccountInput{UserID: "deleted-user", ProviderID: "github", ProviderType: "oauth", ProviderAccountID: "99"}); err != nil {
		t.Fatalf("Link() error = %v", err)
	}

	tests := []struct {
		name              string
		providerID        string
		providerAccountID string
		want              *core.User
	}{
		{name: "linked account", providerID: "github", providerAccountID: "42", want: user},
		{name: "unknown account", providerID: "github", providerAccountID: "7"},
		{name: "other provider", providerID: "google", providerAccountID: "42"},
		{name: "dangling account", providerID: "github", providerAccountID: "99"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := um.GetByProviderAccountID(ctx, test.providerID, test.providerAccountID)
			if err != nil {
				t.Fatalf("GetByProviderAccountID() error = %v", err)
			}
			if !reflect.DeepEqual(got, test.want) {
				t.Errorf("GetByProviderAccountID() = %+v, want %+v", got, test.want)
			}
		})
	}
}

func TestUserManager_Update(t *testing.T) {
	// Arrange
	um, _, clock := newTestUserManager()
	ctx := context.Background()
	user, _ := um.Create(ctx, core.Profile{Name: strPtr("Ada"), Email: strPtr("ada@example.com")})
	clock.Advance(time.Minute)

	verified := clock.Now()
	changed := *user
	changed.Name = strPtr("Ada Lovelace")
	changed.Image = strPtr("https://example.com/ada.png")
	changed.EmailVerified = &verified

	// Act
	updated, err := um.Update(ctx, &changed)

	// Assert
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if *updated.Name != "Ada Lovelace" || *updated.Image != "https://example.com/ada.png" {
		t.Errorf("Update() = %+v", updated)
	}
	if updated.EmailVerified == nil || !updated.EmailVerified.Equal(verified) {
		t.Errorf("EmailVerified = %v, want %v", updated.EmailVerified, verified)
	}
	if !updated.CreatedAt.Equal(testEpoch) {
		t.Errorf("CreatedAt = %v, want unchanged %v", updated.CreatedAt, testEpoch)
	}
	if !updated.UpdatedAt.Equal(clock.Now()) {
		t.Errorf("UpdatedAt = %v, want %v", updated.UpdatedAt, clock.Now())
	}

	stored, _ := um.Get(ctx, user.ID)
	if !reflect.DeepEqual(stored, updated) {
		t.Errorf("stored = %+v, want %+v", stored, updated)
	}
}

func TestUserManager_Update_Errors(t *testing.T) {
	um, _, _ := newTestUserManager()
	ctx := context.Background()

	if _, err := um.Update(ctx, nil); !errors.Is(err, core.ErrUserRequired) {
		t.Errorf("Update(nil) error = %v, want ErrUserRequired", err)
	}
	if _, err := um.Update(ctx, &core.User{}); !errors.Is(err, core.ErrUserIDRequired) {
		t.Errorf("Update(no id) error = %v, want ErrUserIDRequired", err)
	}
	got, err := um.Update(ctx, &core.User{ID: "missing"})
	if err != nil || got != nil {
		t.Errorf("Update(missing) = %v, %v, want nil, nil", got, err)
	}
}

// Requirement: DeleteUser does not cascade to accounts or sessions.
func TestUserManager_Delete_NoCascade(t *testing.T) {
	// Arrange
	fs := NewFakeStore()
	um := NewUserManager(fs, nil)
	am := NewAccountManager(fs, nil)
	sm := NewSessionManager(testSessionConfig, fs, nil, nil)
	ctx := context.Background()

	user, _ := um.Create(ctx, core.Profile{Email: strPtr("ada@example.com")})
	_, _ = am.Link(ctx, core.LinkAccountInput{UserID: user.ID, ProviderID: "github", ProviderAccountID: "42"})
	session, _ := sm.Create(ctx, user.ID)

	// Act
	deleted, err := um.Delete(ctx, user.ID)

	// Assert
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !reflect.DeepEqual(deleted, user) {
		t.Errorf("Delete() = %+v, want %+v", deleted, user)
	}
	if again, _ := um.Delete(ctx, user.ID); again != nil {
		t.Errorf("second Delete() = %+v, want nil", again)
	}
	if s, _ := sm.Get(ctx, session.SessionToken); s == nil {
		t.Error("session must survive user deletion")
	}
	if fs.Len() != 2 {
		t.Errorf("store holds %d documents, want account and session", fs.Len())
	}
}

// Requirement: an account pair can be linked once and unlinked once.
func TestAccountManager_LinkUnlink(t *testing.T) {
	// Arrange
	fs := NewFakeStore()
	am := NewAccountManager(fs, nil)
	ctx := context.Background()
	input := core.LinkAccountInput{
		UserID:            "user123",
		ProviderID:        "github",
		ProviderType:      "oauth",
		ProviderAccountID: "42",
		AccessToken:       strPtr("gho_access"),
	}

	// Act
	linked, err := am.Link(ctx, input)
	if err != nil {
		t.Fatalf("Link() error = %v", err)
	}
	_, dupErr := am.Link(ctx, input)
	unlinked, err := am.Unlink(ctx, "github", "42")
	if err != nil {
		t.Fatalf("Unlink() error = %v", err)
	}
	again, _ := am.Unlink(ctx, "github", "42")

	// Assert
	if linked.ID == "" || linked.UserID != "user123" || *linked.AccessToken != "gho_access" {
		t.Errorf("Link() = %+v", linked)
	}
	if !errors.Is(dupErr, core.ErrDuplicateKey) {
		t.Errorf("duplicate Link() error = %v, want ErrDuplicateKey", dupErr)
	}
	if !reflect.DeepEqual(unlinked, linked) {
		t.Errorf("Unlink() = %+v, want %+v", unlinked, linked)
	}
	if again != nil {
		t.Errorf("second Unlink() = %+v, want nil", again)
	}
}

func TestAccountManager_Link_Validation(t *testing.T) {
	am := NewAccountManager(NewFakeStore(), nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   core.LinkAccountInput
		wantErr error
	}{
		{name: "missing user", input: core.LinkAccountInput{ProviderID: "github", ProviderAccountID: "1"}, wantErr: core.ErrUserIDRequired},
		{name: "missing provider", input: core.LinkAccountInput{UserID: "u", ProviderAccountID: "1"}, wantErr: core.ErrProviderRequired},
		{name: "missing provider account", input: core.LinkAccountInput{UserID: "u", ProviderID: "github"}, wantErr: core.ErrProviderRequired},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := am.Link(ctx, test.input); !errors.Is(err, test.wantErr) {
				t.Errorf("Link() error = %v, want %v", err, test.wantErr)
			}
		})
	}
}

func TestAccountFromToken(t *testing.T) {
	expiry := testEpoch.Add(time.Hour)

	tests := []struct {
		name  string
		token *oauth2.Token
		check func(t *testing.T, in core.LinkAccountInput)
	}{
		{
			name:  "full token",
			token: &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: expiry},
			check: func(t *testing.T, in core.LinkAccountInput) {
				if in.AccessToken == nil || *in.AccessToken != "access" {
					t.Errorf("AccessToken = %v", in.AccessToken)
				}
				if in.RefreshToken == nil || *in.RefreshToken != "refresh" {
					t.Errorf("RefreshToken = %v", in.RefreshToken)
				}
				if in.AccessTokenExpires == nil || !in.AccessTokenExpires.Equal(expiry) {
					t.Errorf("AccessTokenExpires = %v", in.AccessTokenExpires)
				}
			},
		},
		{
			name:  "no refresh token or expiry",
			token: &oauth2.Token{AccessToken: "access"},
			check: func(t *testing.T, in core.LinkAccountInput) {
				if in.RefreshToken != nil || in.AccessTokenExpires != nil {
					t.Errorf("expected nil refresh token and expiry, got %+v", in)
				}
			},
		},
		{
			name:  "nil token",
			token: nil,
			check: func(t *testing.T, in core.LinkAccountInput) {
				if in.AccessToken != nil {
					t.Errorf("AccessToken = %v, want nil", in.AccessToken)
				}
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			in := AccountFromToken("user123", "github", "", "42", test.token)

			if in.UserID != "user123" || in.ProviderID != "github" || in.ProviderAccountID != "42" {
				t.Errorf("AccountFromToken() = %+v", in)
			}
			if in.ProviderType != ProviderTypeOAuth {
				t.Errorf("ProviderType = %q, want %q", in.ProviderType, ProviderTypeOAuth)
			}
			test.check(t, in)
		})
	}
}
