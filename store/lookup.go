package store

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Lookup protocol
//
// Each helper issues exactly one store call for the target and reshapes the
// result. A nil document short-circuits to (nil, nil) without invoking decode.
// The store call itself carries the existence check, so there is no gap
// between checking and fetching.

// DecodeFunc reshapes a raw document into a typed value.
type DecodeFunc[T any] func(doc *Document) (*T, error)

// FindOne resolves target and decodes the document it selects.
func FindOne[T any](ctx context.Context, s Store, target Target, decode DecodeFunc[T]) (*T, error) {
	doc, err := s.Get(ctx, target)
	return reshape(doc, err, decode)
}

// ModifyOne applies fields to the document target selects and decodes the
// updated document.
func ModifyOne[T any](ctx context.Context, s Store, target Target, fields bson.M, decode DecodeFunc[T]) (*T, error) {
	doc, err := s.Update(ctx, target, fields)
	return reshape(doc, err, decode)
}

// RemoveOne deletes the document target selects and decodes what was deleted.
func RemoveOne[T any](ctx context.Context, s Store, target Target, decode DecodeFunc[T]) (*T, error) {
	doc, err := s.Delete(ctx, target)
	return reshape(doc, err, decode)
}

// InsertOne creates a document and decodes the stored result.
func InsertOne[T any](ctx context.Context, s Store, collection string, record any, decode DecodeFunc[T]) (*T, error) {
	doc, err := s.Create(ctx, collection, record)
	return reshape(doc, err, decode)
}

func reshape[T any](doc *Document, err error, decode DecodeFunc[T]) (*T, error) {
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return decode(doc)
}
