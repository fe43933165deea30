// Package redis stores documents in Redis, resolving indexes inside Lua
// scripts so a lookup and the action on its match run atomically.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/lborres/docauth/store"
)

type Adapter struct {
	client goredis.UniversalClient
	schema store.Schema
}

var (
	_ store.Store   = (*Adapter)(nil)
	_ store.Sweeper = (*Adapter)(nil)
)

func New(client goredis.UniversalClient, indexes ...store.Index) *Adapter {
	return &Adapter{
		client: client,
		schema: store.NewSchema(indexes...),
	}
}

// Connect dials addr and checks the server answers.
func Connect(ctx context.Context, addr, password string, indexes ...store.Index) (*Adapter, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return New(client, indexes...), nil
}

// locate translates a target into the collection, the index key used when
// resolving by index, and the id when resolving by reference.
func (a *Adapter) locate(target store.Target) (collection, key, id string, err error) {
	if !target.IsIndex() {
		if target.Ref.IsZero() {
			return "", "", "", store.ErrInvalidTarget
		}
		return target.Ref.Collection, docPrefix(target.Ref.Collection) + target.Ref.ID, target.Ref.ID, nil
	}

	idx, err := a.schema.Resolve(target)
	if err != nil {
		return "", "", "", err
	}
	return idx.Collection, indexKey(idx.Name, target.Terms), "", nil
}

func (a *Adapter) Create(ctx context.Context, collection string, doc any) (*store.Document, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	id, err := store.NewID()
	if err != nil {
		return nil, err
	}

	idxKeys, flags := scriptArgs(indexEntries(a.schema, collection, raw))
	keys := append([]string{docPrefix(collection) + id, docIndexPrefix(collection) + id}, idxKeys...)
	args := append([]any{[]byte(raw), id}, flags...)

	if err := createScript.Run(ctx, a.client, keys, args...).Err(); err != nil {
		return nil, mapError(err)
	}

	return &store.Document{Ref: store.Ref{Collection: collection, ID: id}, Raw: raw}, nil
}

func (a *Adapter) Get(ctx context.Context, target store.Target) (*store.Document, error) {
	collection, key, id, err := a.locate(target)
	if err != nil {
		return nil, err
	}

	res, err := getScript.Run(ctx, a.client, []string{key}, docPrefix(collection), id).Result()
	return document(collection, res, err)
}

// Update merges fields into the matched document and swaps it in only if
// the stored payload is still the one merged from. A lost race resolves the
// target again; the loop ends on success or when ctx is done.
func (a *Adapter) Update(ctx context.Context, target store.Target, fields bson.M) (*store.Document, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current, err := a.Get(ctx, target)
		if err != nil || current == nil {
			return nil, err
		}

		updated, err := store.Merge(current.Raw, fields)
		if err != nil {
			return nil, err
		}

		ref := current.Ref
		idxKeys, flags := scriptArgs(indexEntries(a.schema, ref.Collection, updated))
		keys := append([]string{docPrefix(ref.Collection) + ref.ID, docIndexPrefix(ref.Collection) + ref.ID}, idxKeys...)
		args := append([]any{[]byte(current.Raw), []byte(updated), ref.ID}, flags...)

		n, err := swapScript.Run(ctx, a.client, keys, args...).Int64()
		if err != nil {
			return nil, mapError(err)
		}
		switch n {
		case 1:
			return &store.Document{Ref: ref, Raw: updated}, nil
		case 0:
			return nil, nil
		}
		// changed underneath us; resolve again
	}
}

func (a *Adapter) Delete(ctx context.Context, target store.Target) (*store.Document, error) {
	collection, key, id, err := a.locate(target)
	if err != nil {
		return nil, err
	}

	res, err := deleteScript.Run(ctx, a.client, []string{key}, docPrefix(collection), docIndexPrefix(collection), id).Result()
	return document(collection, res, err)
}

// DeleteExpired scans a collection and deletes documents whose field lies
// before cutoff. Each delete is its own script call and only goes through if
// the payload is still the one that was judged expired.
func (a *Adapter) DeleteExpired(ctx context.Context, collection, field string, cutoff time.Time) (int64, error) {
	limit := int64(store.NativeTime(cutoff))
	prefix := docPrefix(collection)

	var n int64
	iter := a.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		id := strings.TrimPrefix(iter.Val(), prefix)

		deleted, err := a.expire(ctx, collection, id, field, limit)
		if err != nil {
			return n, err
		}
		if deleted {
			n++
		}
	}
	if err := iter.Err(); err != nil {
		return n, fmt.Errorf("failed to scan %s: %w", collection, err)
	}
	return n, nil
}

// expire deletes one document if its field lies before limit. A document
// rewritten between the read and the delete is judged again.
func (a *Adapter) expire(ctx context.Context, collection, id, field string, limit int64) (bool, error) {
	keys := []string{docPrefix(collection) + id, docIndexPrefix(collection) + id}
	for {
		doc, err := a.Get(ctx, store.ByRef(collection, id))
		if err != nil || doc == nil {
			return false, err
		}
		ms, ok := doc.Raw.Lookup(field).DateTimeOK()
		if !ok || ms >= limit {
			return false, nil
		}

		res, err := deleteIfScript.Run(ctx, a.client, keys, []byte(doc.Raw), id).Int64()
		if err != nil {
			return false, err
		}
		switch res {
		case 1:
			return true, nil
		case 0:
			return false, nil
		}
	}
}

func (a *Adapter) Close(ctx context.Context) error {
	return a.client.Close()
}

// document decodes a {id, payload} script reply.
func document(collection string, res any, err error) (*store.Document, error) {
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}

	pair, ok := res.([]any)
	if !ok || len(pair) != 2 {
		return nil, fmt.Errorf("unexpected script reply %T", res)
	}
	id, _ := pair[0].(string)
	body, _ := pair[1].(string)

	return &store.Document{Ref: store.Ref{Collection: collection, ID: id}, Raw: bson.Raw(body)}, nil
}

func mapError(err error) error {
	if err != nil && strings.Contains(err.Error(), "DUPLICATE") {
		return fmt.Errorf("%w: %v", store.ErrDuplicateKey, err)
	}
	return err
}
