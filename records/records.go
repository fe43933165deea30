// Package records maps store documents to core entities and back.
//
// Every record kind has an explicit bson schema. Timestamps are stored as
// bson.DateTime and surface as UTC time.Time with millisecond precision; a
// null or absent timestamp becomes a nil pointer.
package records

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/lborres/docauth/core"
	"github.com/lborres/docauth/store"
)

// Collections
const (
	Users                = "users"
	Accounts             = "accounts"
	Sessions             = "sessions"
	VerificationRequests = "verification_requests"
)

// Secondary indexes
const (
	UsersByEmail                = "users_by_email"
	AccountsByProviderAccountID = "accounts_by_provider_account_id"
	SessionsBySessionToken      = "sessions_by_session_token"
	VerificationRequestsByToken = "verification_requests_by_token"
)

// ExpiresField is the timestamp field swept on sessions and verification
// requests.
const ExpiresField = "expires"

// Indexes returns the index set every backend is built with.
func Indexes() []store.Index {
	return []store.Index{
		{Name: UsersByEmail, Collection: Users, Fields: []string{"email"}, Unique: true},
		{Name: AccountsByProviderAccountID, Collection: Accounts, Fields: []string{"providerId", "providerAccountId"}, Unique: true},
		{Name: SessionsBySessionToken, Collection: Sessions, Fields: []string{"sessionToken"}, Unique: true},
		{Name: VerificationRequestsByToken, Collection: VerificationRequests, Fields: []string{"identifier", "token"}, Unique: true},
	}
}

func decode[R any](doc *store.Document, kind string) (*R, error) {
	var r R
	if err := bson.Unmarshal(doc.Raw, &r); err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", core.ErrInvalidRecord, kind, doc.Ref.ID, err)
	}
	return &r, nil
}

// wallTimeOrZero maps a missing required timestamp to the zero time.
func wallTimeOrZero(dt *bson.DateTime) time.Time {
	if dt == nil {
		return time.Time{}
	}
	return store.WallTime(*dt)
}
