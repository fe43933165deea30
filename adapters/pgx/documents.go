package pgx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/lborres/docauth/store"
)

// Postgres unique violation error code
const uniqueViolation = "23505"

func (a *Adapter) Create(ctx context.Context, collection string, doc any) (*store.Document, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	body, err := encode(doc)
	if err != nil {
		return nil, err
	}

	id, err := store.NewID()
	if err != nil {
		return nil, err
	}

	if _, err := a.pool.Exec(ctx, insertQuery, collection, id, string(body)); err != nil {
		return nil, mapError(err)
	}

	return &store.Document{Ref: store.Ref{Collection: collection, ID: id}, Raw: raw}, nil
}

func (a *Adapter) Get(ctx context.Context, target store.Target) (*store.Document, error) {
	collection, predicate, args, err := a.selector(target)
	if err != nil {
		return nil, err
	}

	row := a.pool.QueryRow(ctx, selectQuery(predicate), append([]any{collection}, args...)...)
	return scanDocument(collection, row)
}

func (a *Adapter) Update(ctx context.Context, target store.Target, fields bson.M) (*store.Document, error) {
	collection, predicate, args, err := a.selector(target)
	if err != nil {
		return nil, err
	}
	patch, err := encode(fields)
	if err != nil {
		return nil, err
	}

	args = append([]any{collection}, args...)
	args = append(args, string(patch))

	row := a.pool.QueryRow(ctx, updateQuery(predicate, len(args)), args...)
	return scanDocument(collection, row)
}

func (a *Adapter) Delete(ctx context.Context, target store.Target) (*store.Document, error) {
	collection, predicate, args, err := a.selector(target)
	if err != nil {
		return nil, err
	}

	row := a.pool.QueryRow(ctx, deleteQuery(predicate), append([]any{collection}, args...)...)
	return scanDocument(collection, row)
}

func (a *Adapter) DeleteExpired(ctx context.Context, collection, field string, cutoff time.Time) (int64, error) {
	tag, err := a.pool.Exec(ctx, deleteExpiredQuery, collection, field, int64(store.NativeTime(cutoff)))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired %s: %w", collection, err)
	}
	return tag.RowsAffected(), nil
}

func (a *Adapter) Close(ctx context.Context) error {
	a.pool.Close()
	return nil
}

func scanDocument(collection string, row pgx.Row) (*store.Document, error) {
	var id, body string
	if err := row.Scan(&id, &body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(err)
	}

	raw, err := decode(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
	}

	return &store.Document{Ref: store.Ref{Collection: collection, ID: id}, Raw: raw}, nil
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", store.ErrDuplicateKey, pgErr.ConstraintName)
	}
	return err
}
