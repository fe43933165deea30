package pgx

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/lborres/docauth/store"
)

const (
	insertQuery = `INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3::jsonb)`

	// $1 collection, $2 field, $3 cutoff in epoch milliseconds
	deleteExpiredQuery = `DELETE FROM documents WHERE collection = $1 AND (body->$2->'$date'->>'$numberLong')::bigint < $3`
)

// fieldExpr renders a text extraction of a top-level body field. Field names
// come from the index schema, never from request input.
func fieldExpr(field string) string {
	return "(body->>'" + strings.ReplaceAll(field, "'", "''") + "')"
}

// selector renders the id predicate for target. Arguments are numbered from
// $2; $1 is always the collection.
func (a *Adapter) selector(target store.Target) (collection, predicate string, args []any, err error) {
	if !target.IsIndex() {
		if target.Ref.IsZero() {
			return "", "", nil, store.ErrInvalidTarget
		}
		return target.Ref.Collection, "id = $2", []any{target.Ref.ID}, nil
	}

	idx, err := a.schema.Resolve(target)
	if err != nil {
		return "", "", nil, err
	}

	conds := make([]string, len(idx.Fields))
	args = make([]any, len(idx.Fields))
	for i, field := range idx.Fields {
		conds[i] = fmt.Sprintf("%s = $%d", fieldExpr(field), i+2)
		args[i] = target.Terms[i]
	}

	// First match is the lowest id in byte order.
	predicate = fmt.Sprintf(
		"id = (SELECT id FROM documents WHERE collection = $1 AND %s ORDER BY id COLLATE \"C\" LIMIT 1)",
		strings.Join(conds, " AND "),
	)
	return idx.Collection, predicate, args, nil
}

func selectQuery(predicate string) string {
	return "SELECT id, body::text FROM documents WHERE collection = $1 AND " + predicate
}

// updateQuery merges the JSON object in $n into the body.
func updateQuery(predicate string, n int) string {
	return fmt.Sprintf(
		"UPDATE documents SET body = body || $%d::jsonb WHERE collection = $1 AND %s RETURNING id, body::text",
		n, predicate,
	)
}

func deleteQuery(predicate string) string {
	return "DELETE FROM documents WHERE collection = $1 AND " + predicate + " RETURNING id, body::text"
}

// encode renders a bson document as canonical extended JSON.
func encode(doc any) ([]byte, error) {
	return bson.MarshalExtJSON(doc, true, false)
}

// decode parses a body back into raw bson.
func decode(body string) (bson.Raw, error) {
	var d bson.D
	if err := bson.UnmarshalExtJSON([]byte(body), true, &d); err != nil {
		return nil, err
	}
	return bson.Marshal(d)
}
