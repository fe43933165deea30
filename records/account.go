package records

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/lborres/docauth/core"
	"github.com/lborres/docauth/store"
)

type AccountRecord struct {
	UserID             string         `bson:"userId"`
	ProviderID         string         `bson:"providerId"`
	ProviderType       string         `bson:"providerType"`
	ProviderAccountID  string         `bson:"providerAccountId"`
	RefreshToken       *string        `bson:"refreshToken"`
	AccessToken        *string        `bson:"accessToken"`
	AccessTokenExpires *bson.DateTime `bson:"accessTokenExpires"`
	CreatedAt          *bson.DateTime `bson:"createdAt"`
	UpdatedAt          *bson.DateTime `bson:"updatedAt"`
}

func Account(doc *store.Document) (*core.Account, error) {
	if doc == nil {
		return nil, nil
	}
	r, err := decode[AccountRecord](doc, "account")
	if err != nil {
		return nil, err
	}
	return &core.Account{
		ID:                 doc.Ref.ID,
		UserID:             r.UserID,
		ProviderID:         r.ProviderID,
		ProviderType:       r.ProviderType,
		ProviderAccountID:  r.ProviderAccountID,
		RefreshToken:       r.RefreshToken,
		AccessToken:        r.AccessToken,
		AccessTokenExpires: store.WallTimePtr(r.AccessTokenExpires),
		CreatedAt:          wallTimeOrZero(r.CreatedAt),
		UpdatedAt:          wallTimeOrZero(r.UpdatedAt),
	}, nil
}

func FromAccount(a *core.Account) AccountRecord {
	return AccountRecord{
		UserID:             a.UserID,
		ProviderID:         a.ProviderID,
		ProviderType:       a.ProviderType,
		ProviderAccountID:  a.ProviderAccountID,
		RefreshToken:       a.RefreshToken,
		AccessToken:        a.AccessToken,
		AccessTokenExpires: store.NativeTimePtr(a.AccessTokenExpires),
		CreatedAt:          store.NativeTimePtr(&a.CreatedAt),
		UpdatedAt:          store.NativeTimePtr(&a.UpdatedAt),
	}
}
