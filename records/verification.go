package records

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/lborres/docauth/core"
	"github.com/lborres/docauth/store"
)

// VerificationRecord stores the hashed token only.
type VerificationRecord struct {
	Identifier string         `bson:"identifier"`
	Token      string         `bson:"token"`
	Expires    *bson.DateTime `bson:"expires"`
	CreatedAt  *bson.DateTime `bson:"createdAt"`
	UpdatedAt  *bson.DateTime `bson:"updatedAt"`
}

func VerificationRequest(doc *store.Document) (*core.VerificationRequest, error) {
	if doc == nil {
		return nil, nil
	}
	r, err := decode[VerificationRecord](doc, "verification request")
	if err != nil {
		return nil, err
	}
	return &core.VerificationRequest{
		ID:         doc.Ref.ID,
		Identifier: r.Identifier,
		Token:      r.Token,
		Expires:    wallTimeOrZero(r.Expires),
		CreatedAt:  wallTimeOrZero(r.CreatedAt),
		UpdatedAt:  wallTimeOrZero(r.UpdatedAt),
	}, nil
}

func FromVerificationRequest(v *core.VerificationRequest) VerificationRecord {
	return VerificationRecord{
		Identifier: v.Identifier,
		Token:      v.Token,
		Expires:    store.NativeTimePtr(&v.Expires),
		CreatedAt:  store.NativeTimePtr(&v.CreatedAt),
		UpdatedAt:  store.NativeTimePtr(&v.UpdatedAt),
	}
}
