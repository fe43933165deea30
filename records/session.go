package records

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/lborres/docauth/core"
	"github.com/lborres/docauth/store"
)

type SessionRecord struct {
	UserID       string         `bson:"userId"`
	SessionToken string         `bson:"sessionToken"`
	AccessToken  string         `bson:"accessToken"`
	Expires      *bson.DateTime `bson:"expires"`
	CreatedAt    *bson.DateTime `bson:"createdAt"`
	UpdatedAt    *bson.DateTime `bson:"updatedAt"`
}

func Session(doc *store.Document) (*core.Session, error) {
	if doc == nil {
		return nil, nil
	}
	r, err := decode[SessionRecord](doc, "session")
	if err != nil {
		return nil, err
	}
	return &core.Session{
		ID:           doc.Ref.ID,
		UserID:       r.UserID,
		SessionToken: r.SessionToken,
		AccessToken:  r.AccessToken,
		Expires:      wallTimeOrZero(r.Expires),
		CreatedAt:    wallTimeOrZero(r.CreatedAt),
		UpdatedAt:    wallTimeOrZero(r.UpdatedAt),
	}, nil
}

func FromSession(s *core.Session) SessionRecord {
	return SessionRecord{
		UserID:       s.UserID,
		SessionToken: s.SessionToken,
		AccessToken:  s.AccessToken,
		Expires:      store.NativeTimePtr(&s.Expires),
		CreatedAt:    store.NativeTimePtr(&s.CreatedAt),
		UpdatedAt:    store.NativeTimePtr(&s.UpdatedAt),
	}
}

// SessionRenewal is the update applied when a session is extended. Tokens
// are left untouched.
func SessionRenewal(expires, now bson.DateTime) bson.M {
	return bson.M{
		"expires":   expires,
		"updatedAt": now,
	}
}
