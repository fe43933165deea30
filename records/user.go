package records

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/lborres/docauth/core"
	"github.com/lborres/docauth/store"
)

// UserRecord is the stored shape of a user. A null email is not indexed.
type UserRecord struct {
	Name          *string        `bson:"name"`
	Email         *string        `bson:"email"`
	Image         *string        `bson:"image"`
	EmailVerified *bson.DateTime `bson:"emailVerified"`
	CreatedAt     *bson.DateTime `bson:"createdAt"`
	UpdatedAt     *bson.DateTime `bson:"updatedAt"`
}

// User reshapes a stored document into a user. A nil document yields nil.
func User(doc *store.Document) (*core.User, error) {
	if doc == nil {
		return nil, nil
	}
	r, err := decode[UserRecord](doc, "user")
	if err != nil {
		return nil, err
	}
	return &core.User{
		ID:            doc.Ref.ID,
		Name:          r.Name,
		Email:         r.Email,
		Image:         r.Image,
		EmailVerified: store.WallTimePtr(r.EmailVerified),
		CreatedAt:     wallTimeOrZero(r.CreatedAt),
		UpdatedAt:     wallTimeOrZero(r.UpdatedAt),
	}, nil
}

// FromUser builds the record stored for u.
func FromUser(u *core.User) UserRecord {
	return UserRecord{
		Name:          u.Name,
		Email:         u.Email,
		Image:         u.Image,
		EmailVerified: store.NativeTimePtr(u.EmailVerified),
		CreatedAt:     store.NativeTimePtr(&u.CreatedAt),
		UpdatedAt:     store.NativeTimePtr(&u.UpdatedAt),
	}
}

// UserUpdate lists the mutable fields of u as a top-level update.
func UserUpdate(u *core.User) bson.M {
	return bson.M{
		"name":          u.Name,
		"email":         u.Email,
		"image":         u.Image,
		"emailVerified": store.NativeTimePtr(u.EmailVerified),
		"updatedAt":     store.NativeTime(u.UpdatedAt),
	}
}
