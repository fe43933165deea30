package redis

import (
	"sort"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/lborres/docauth/store"
)

func docPrefix(collection string) string {
	return "doc:" + collection + ":"
}

func docIndexPrefix(collection string) string {
	return "docidx:" + collection + ":"
}

// indexKey length-prefixes every term so no two term lists share a key.
func indexKey(name string, terms []string) string {
	var b strings.Builder
	b.WriteString("idx:")
	b.WriteString(name)
	b.WriteByte(':')
	for _, term := range terms {
		b.WriteString(strconv.Itoa(len(term)))
		b.WriteByte(':')
		b.WriteString(term)
	}
	return b.String()
}

// indexEntry is one index key a document is listed under.
type indexEntry struct {
	key    string
	unique bool
}

// indexEntries lists the index keys of a collection's document, sorted by key.
func indexEntries(schema store.Schema, collection string, raw bson.Raw) []indexEntry {
	var entries []indexEntry
	for _, idx := range schema {
		if idx.Collection != collection {
			continue
		}
		terms, ok := idx.Terms(raw)
		if !ok {
			continue
		}
		entries = append(entries, indexEntry{key: indexKey(idx.Name, terms), unique: idx.Unique})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	return entries
}

// scriptArgs splits entries into script keys and unique flags.
func scriptArgs(entries []indexEntry) (keys []string, flags []any) {
	keys = make([]string, len(entries))
	flags = make([]any, len(entries))
	for i, e := range entries {
		keys[i] = e.key
		flags[i] = "0"
		if e.unique {
			flags[i] = "1"
		}
	}
	return keys, flags
}
