// Package mongo stores documents in MongoDB collections.
//
// Each resolution maps to one server-side operation (FindOne,
// FindOneAndUpdate, FindOneAndDelete) sorted by _id, so resolving an index
// and acting on the match cannot interleave with another writer.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lborres/docauth/store"
)

type Adapter struct {
	db     *mongo.Database
	schema store.Schema
}

var (
	_ store.Store   = (*Adapter)(nil)
	_ store.Sweeper = (*Adapter)(nil)
)

// firstMatch orders index matches by ascending reference.
var firstMatch = bson.D{{Key: "_id", Value: 1}}

func New(db *mongo.Database, indexes ...store.Index) *Adapter {
	return &Adapter{
		db:     db,
		schema: store.NewSchema(indexes...),
	}
}

// EnsureIndexes creates the schema's indexes. Only documents whose indexed
// fields are all strings are indexed, so null terms never collide.
func (a *Adapter) EnsureIndexes(ctx context.Context) error {
	for _, idx := range a.schema {
		if _, err := a.db.Collection(idx.Collection).Indexes().CreateOne(ctx, indexModel(idx)); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.Name, err)
		}
	}
	return nil
}

func indexModel(idx store.Index) mongo.IndexModel {
	keys := make(bson.D, len(idx.Fields))
	partial := make(bson.D, len(idx.Fields))
	for i, field := range idx.Fields {
		keys[i] = bson.E{Key: field, Value: 1}
		partial[i] = bson.E{Key: field, Value: bson.D{{Key: "$type", Value: "string"}}}
	}

	return mongo.IndexModel{
		Keys: keys,
		Options: options.Index().
			SetName(idx.Name).
			SetUnique(idx.Unique).
			SetPartialFilterExpression(partial),
	}
}

// filter translates a target. ok is false when the target can never match,
// such as a reference that is not an ObjectID.
func (a *Adapter) filter(target store.Target) (collection string, filter bson.D, ok bool, err error) {
	if !target.IsIndex() {
		if target.Ref.IsZero() {
			return "", nil, false, store.ErrInvalidTarget
		}
		oid, err := bson.ObjectIDFromHex(target.Ref.ID)
		if err != nil {
			return target.Ref.Collection, nil, false, nil
		}
		return target.Ref.Collection, bson.D{{Key: "_id", Value: oid}}, true, nil
	}

	idx, err := a.schema.Resolve(target)
	if err != nil {
		return "", nil, false, err
	}

	filter = make(bson.D, len(idx.Fields))
	for i, field := range idx.Fields {
		filter[i] = bson.E{Key: field, Value: target.Terms[i]}
	}
	return idx.Collection, filter, true, nil
}

func (a *Adapter) Create(ctx context.Context, collection string, doc any) (*store.Document, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}

	var fields bson.D
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	id := bson.NewObjectID()
	withID := append(bson.D{{Key: "_id", Value: id}}, fields...)

	if _, err := a.db.Collection(collection).InsertOne(ctx, withID); err != nil {
		return nil, mapError(err)
	}

	return &store.Document{Ref: store.Ref{Collection: collection, ID: id.Hex()}, Raw: raw}, nil
}

func (a *Adapter) Get(ctx context.Context, target store.Target) (*store.Document, error) {
	collection, filter, ok, err := a.filter(target)
	if err != nil || !ok {
		return nil, err
	}

	res := a.db.Collection(collection).FindOne(ctx, filter, options.FindOne().SetSort(firstMatch))
	return document(collection, res)
}

func (a *Adapter) Update(ctx context.Context, target store.Target, fields bson.M) (*store.Document, error) {
	collection, filter, ok, err := a.filter(target)
	if err != nil || !ok {
		return nil, err
	}

	opts := options.FindOneAndUpdate().
		SetSort(firstMatch).
		SetReturnDocument(options.After)
	res := a.db.Collection(collection).FindOneAndUpdate(ctx, filter, bson.D{{Key: "$set", Value: fields}}, opts)
	return document(collection, res)
}

func (a *Adapter) Delete(ctx context.Context, target store.Target) (*store.Document, error) {
	collection, filter, ok, err := a.filter(target)
	if err != nil || !ok {
		return nil, err
	}

	res := a.db.Collection(collection).FindOneAndDelete(ctx, filter, options.FindOneAndDelete().SetSort(firstMatch))
	return document(collection, res)
}

func (a *Adapter) DeleteExpired(ctx context.Context, collection, field string, cutoff time.Time) (int64, error) {
	filter := bson.D{{Key: field, Value: bson.D{{Key: "$lt", Value: store.NativeTime(cutoff)}}}}

	res, err := a.db.Collection(collection).DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired %s: %w", collection, err)
	}
	return res.DeletedCount, nil
}

func (a *Adapter) Close(ctx context.Context) error {
	return a.db.Client().Disconnect(ctx)
}

func document(collection string, res *mongo.SingleResult) (*store.Document, error) {
	raw, err := res.Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, mapError(err)
	}

	oid, ok := raw.Lookup("_id").ObjectIDOK()
	if !ok {
		return nil, fmt.Errorf("document in %s has no ObjectID", collection)
	}

	return &store.Document{Ref: store.Ref{Collection: collection, ID: oid.Hex()}, Raw: raw}, nil
}

func mapError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", store.ErrDuplicateKey, err)
	}
	return err
}
