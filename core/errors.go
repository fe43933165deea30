package core

import (
	"errors"

	"github.com/lborres/docauth/store"
)

// Not-found is never an error. Lookups that match nothing return a nil
// entity and a nil error.

// Input errors (caller supplied values)
var (
	ErrUserIDRequired     = errors.New("user id is required")                     // 400
	ErrUserRequired       = errors.New("user is required")                        // 400
	ErrSessionRequired    = errors.New("session is required")                     // 400
	ErrIdentifierRequired = errors.New("identifier is required")                  // 400
	ErrTokenRequired      = errors.New("verification token is required")          // 400
	ErrProviderRequired   = errors.New("provider id and account id are required") // 400
	ErrSenderRequired     = errors.New("verification sender is required")         // 500
)

// Delivery errors
var (
	// ErrDeliveryFailed wraps a send failure. The verification request it
	// belongs to has already been persisted and stays valid.
	ErrDeliveryFailed = errors.New("verification delivery failed") // 502
)

// Store errors
var (
	ErrDuplicateKey  = store.ErrDuplicateKey                    // 409
	ErrInvalidRecord = errors.New("stored record is malformed") // 500
)

// HTTP errors (client input)
var (
	ErrMissingToken      = errors.New("missing session token")                                   // 401
	ErrInvalidToken      = errors.New("invalid session token")                                   // 401
	ErrInvalidAuthHeader = errors.New("invalid authorization format, expected 'Bearer <token>'") // 401
	ErrInvalidEmail      = errors.New("invalid email format")                                    // 400
)

// Config errors (server-side configuration)
var (
	ErrStoreRequired  = errors.New("document store is required") // 500
	ErrSecretRequired = errors.New("secret is required")         // 500
	ErrSecretTooShort = errors.New("secret too short")           // 500
)
