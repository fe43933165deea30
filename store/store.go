package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Ports for document-oriented backends
//
// A Store is consumed as an abstract key/index store. Every read, update and
// delete resolves exactly one document through a Target. A miss is never an
// error: implementations return (nil, nil).

var (
	ErrDuplicateKey  = errors.New("duplicate key")         // unique index violation
	ErrUnknownIndex  = errors.New("unknown index")         // target names an index the store was not built with
	ErrInvalidTarget = errors.New("invalid lookup target") // neither ref nor index set
	ErrTermCount     = errors.New("index term count mismatch")
)

// Ref is the store-assigned reference of a document. Its ID is the public
// identifier of the entity stored in it.
type Ref struct {
	Collection string
	ID         string
}

func (r Ref) IsZero() bool {
	return r.ID == ""
}

func (r Ref) String() string {
	return r.Collection + "/" + r.ID
}

// Document is a reference plus its raw bson payload.
type Document struct {
	Ref Ref
	Raw bson.Raw
}

// Target selects a single document, either by reference or by the first
// match of a secondary index.
type Target struct {
	Ref   Ref
	Index string
	Terms []string
}

func ByRef(collection, id string) Target {
	return Target{Ref: Ref{Collection: collection, ID: id}}
}

func ByIndex(index string, terms ...string) Target {
	return Target{Index: index, Terms: terms}
}

func (t Target) IsIndex() bool {
	return t.Index != ""
}

func (t Target) String() string {
	if t.IsIndex() {
		return t.Index + "[" + strings.Join(t.Terms, ",") + "]"
	}
	return t.Ref.String()
}

// Index declares a secondary index over top-level string fields of one
// collection. Terms of a Target are matched positionally against Fields.
type Index struct {
	Name       string
	Collection string
	Fields     []string
	Unique     bool
}

// Store abstracts the backing document store.
type Store interface {
	Create(ctx context.Context, collection string, doc any) (*Document, error)
	Get(ctx context.Context, target Target) (*Document, error)
	Update(ctx context.Context, target Target, fields bson.M) (*Document, error)
	Delete(ctx context.Context, target Target) (*Document, error)
	Close(ctx context.Context) error
}

// Sweeper is implemented by stores that can bulk-delete documents whose
// timestamp field lies before cutoff.
type Sweeper interface {
	DeleteExpired(ctx context.Context, collection, field string, cutoff time.Time) (int64, error)
}

// Schema is an index set keyed by name.
type Schema map[string]Index

func NewSchema(indexes ...Index) Schema {
	s := make(Schema, len(indexes))
	for _, idx := range indexes {
		s[idx.Name] = idx
	}
	return s
}

// Resolve returns the index a target refers to and validates its terms.
func (s Schema) Resolve(t Target) (Index, error) {
	idx, ok := s[t.Index]
	if !ok {
		return Index{}, ErrUnknownIndex
	}
	if len(t.Terms) != len(idx.Fields) {
		return Index{}, ErrTermCount
	}
	return idx, nil
}

// Terms extracts the index terms of a raw document. ok is false when any
// field is missing or not a string; such documents are not indexed.
func (idx Index) Terms(raw bson.Raw) ([]string, bool) {
	terms := make([]string, len(idx.Fields))
	for i, field := range idx.Fields {
		v, err := raw.LookupErr(field)
		if err != nil {
			return nil, false
		}
		str, ok := v.StringValueOK()
		if !ok {
			return nil, false
		}
		terms[i] = str
	}
	return terms, true
}

// Merge applies a top-level field update to a raw document.
func Merge(raw bson.Raw, fields bson.M) (bson.Raw, error) {
	var current bson.D
	if err := bson.Unmarshal(raw, &current); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(fields))
	for i, e := range current {
		if v, ok := fields[e.Key]; ok {
			current[i].Value = v
			seen[e.Key] = true
		}
	}
	added := make([]string, 0, len(fields))
	for k := range fields {
		if !seen[k] {
			added = append(added, k)
		}
	}
	sort.Strings(added)
	for _, k := range added {
		current = append(current, bson.E{Key: k, Value: fields[k]})
	}

	return bson.Marshal(current)
}
