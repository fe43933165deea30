// Package storetest checks a store.Store implementation against the
// behavior every backend must share.
//
// Backends are expected to be built with records.Indexes().
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/lborres/docauth/records"
	"github.com/lborres/docauth/store"
)

// Run executes the conformance suite. newStore must return an empty store
// on every call.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{name: "create then get by ref", fn: testCreateGet},
		{name: "get by index", fn: testGetByIndex},
		{name: "misses return nil", fn: testMisses},
		{name: "unique index rejects duplicates", fn: testDuplicate},
		{name: "null terms are not indexed", fn: testNullTerms},
		{name: "update merges fields", fn: testUpdate},
		{name: "update respects unique index", fn: testUpdateConflict},
		{name: "concurrent updates converge", fn: testConcurrentUpdates},
		{name: "compound terms are kept apart", fn: testCompoundTerms},
		{name: "delete by compound index", fn: testDelete},
		{name: "unknown index", fn: testUnknownIndex},
		{name: "datetime round trip", fn: testDateTime},
		{name: "delete expired", fn: testDeleteExpired},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			test.fn(t, newStore(t))
		})
	}
}

func mustCreate(t *testing.T, s store.Store, collection string, doc any) *store.Document {
	t.Helper()
	created, err := s.Create(context.Background(), collection, doc)
	if err != nil {
		t.Fatalf("Create(%s) error = %v", collection, err)
	}
	if created == nil || created.Ref.ID == "" {
		t.Fatalf("Create(%s) returned no reference", collection)
	}
	return created
}

func lookupString(t *testing.T, raw bson.Raw, key string) string {
	t.Helper()
	v, err := raw.LookupErr(key)
	if err != nil {
		t.Fatalf("field %q missing: %v", key, err)
	}
	s, ok := v.StringValueOK()
	if !ok {
		t.Fatalf("field %q is %s, want string", key, v.Type)
	}
	return s
}

func testCreateGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	created := mustCreate(t, s, records.Users, bson.D{{Key: "email", Value: "ada@example.com"}, {Key: "name", Value: "Ada"}})

	got, err := s.Get(ctx, store.ByRef(records.Users, created.Ref.ID))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatal("Get() = nil, want document")
	}
	if got.Ref != created.Ref {
		t.Errorf("Ref = %v, want %v", got.Ref, created.Ref)
	}
	if name := lookupString(t, got.Raw, "name"); name != "Ada" {
		t.Errorf("name = %q, want Ada", name)
	}
}

func testGetByIndex(t *testing.T, s store.Store) {
	ctx := context.Background()
	created := mustCreate(t, s, records.Users, bson.D{{Key: "email", Value: "ada@example.com"}})
	mustCreate(t, s, records.Users, bson.D{{Key: "email", Value: "bob@example.com"}})

	got, err := s.Get(ctx, store.ByIndex(records.UsersByEmail, "ada@example.com"))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil || got.Ref != created.Ref {
		t.Fatalf("Get() = %v, want %v", got, created.Ref)
	}
}

func testMisses(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustCreate(t, s, records.Users, bson.D{{Key: "email", Value: "ada@example.com"}})

	targets := []store.Target{
		store.ByRef(records.Users, "000000000000000000000000"),
		store.ByIndex(records.UsersByEmail, "nobody@example.com"),
		store.ByIndex(records.SessionsBySessionToken, "missing"),
	}
	for _, target := range targets {
		if doc, err := s.Get(ctx, target); doc != nil || err != nil {
			t.Errorf("Get(%v) = %v, %v, want nil, nil", target, doc, err)
		}
		if doc, err := s.Update(ctx, target, bson.M{"name": "x"}); doc != nil || err != nil {
			t.Errorf("Update(%v) = %v, %v, want nil, nil", target, doc, err)
		}
		if doc, err := s.Delete(ctx, target); doc != nil || err != nil {
			t.Errorf("Delete(%v) = %v, %v, want nil, nil", target, doc, err)
		}
	}
}

func testDuplicate(t *testing.T, s store.Store) {
	mustCreate(t, s, records.Users, bson.D{{Key: "email", Value: "ada@example.com"}})

	_, err := s.Create(context.Background(), records.Users, bson.D{{Key: "email", Value: "ada@example.com"}})
	if !errors.Is(err, store.ErrDuplicateKey) {
		t.Errorf("Create() error = %v, want ErrDuplicateKey", err)
	}
}

func testNullTerms(t *testing.T, s store.Store) {
	mustCreate(t, s, records.Users, bson.D{{Key: "email", Value: nil}})
	mustCreate(t, s, records.Users, bson.D{{Key: "email", Value: nil}})
}

func testUpdate(t *testing.T, s store.Store) {
	ctx := context.Background()
	created := mustCreate(t, s, records.Sessions, bson.D{
		{Key: "userId", Value: "u1"},
		{Key: "sessionToken", Value: "tok"},
	})

	updated, err := s.Update(ctx, store.ByIndex(records.SessionsBySessionToken, "tok"), bson.M{"userId": "u2", "extra": "x"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated == nil || updated.Ref != created.Ref {
		t.Fatalf("Update() = %v, want %v", updated, created.Ref)
	}
	if got := lookupString(t, updated.Raw, "userId"); got != "u2" {
		t.Errorf("userId = %q, want u2", got)
	}
	if got := lookupString(t, updated.Raw, "sessionToken"); got != "tok" {
		t.Errorf("sessionToken = %q, want tok", got)
	}

	stored, err := s.Get(ctx, store.ByRef(records.Sessions, created.Ref.ID))
	if err != nil || stored == nil {
		t.Fatalf("Get() = %v, %v", stored, err)
	}
	if got := lookupString(t, stored.Raw, "extra"); got != "x" {
		t.Errorf("extra = %q, want x", got)
	}
}

func testUpdateConflict(t *testing.T, s store.Store) {
	mustCreate(t, s, records.Users, bson.D{{Key: "email", Value: "ada@example.com"}})
	bob := mustCreate(t, s, records.Users, bson.D{{Key: "email", Value: "bob@example.com"}})

	_, err := s.Update(context.Background(), store.ByRef(records.Users, bob.Ref.ID), bson.M{"email": "ada@example.com"})
	if !errors.Is(err, store.ErrDuplicateKey) {
		t.Errorf("Update() error = %v, want ErrDuplicateKey", err)
	}
}

// Concurrent renewals of one session must all succeed, and the last write
// wins.
func testConcurrentUpdates(t *testing.T, s store.Store) {
	const writers = 64

	ctx := context.Background()
	created := mustCreate(t, s, records.Sessions, bson.D{
		{Key: "sessionToken", Value: "tok"},
		{Key: "expires", Value: bson.DateTime(0)},
	})
	target := store.ByRef(records.Sessions, created.Ref.ID)

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			updated, err := s.Update(ctx, target, bson.M{"expires": bson.DateTime(i + 1)})
			if err != nil {
				errs <- err
				return
			}
			if updated == nil {
				errs <- fmt.Errorf("writer %d: Update() = nil", i)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Update() error = %v", err)
	}

	stored, err := s.Get(ctx, target)
	if err != nil || stored == nil {
		t.Fatalf("Get() = %v, %v", stored, err)
	}
	dt, ok := stored.Raw.Lookup("expires").DateTimeOK()
	if !ok || dt < 1 || dt > writers {
		t.Errorf("expires = %d, want one of the written values", dt)
	}
	if got := lookupString(t, stored.Raw, "sessionToken"); got != "tok" {
		t.Errorf("sessionToken = %q, want tok", got)
	}
}

// Terms that would read the same once joined must still resolve to their
// own documents.
func testCompoundTerms(t *testing.T, s store.Store) {
	ctx := context.Background()
	first := mustCreate(t, s, records.Accounts, bson.D{
		{Key: "providerId", Value: "a\x1fb"},
		{Key: "providerAccountId", Value: "c"},
	})
	second := mustCreate(t, s, records.Accounts, bson.D{
		{Key: "providerId", Value: "a"},
		{Key: "providerAccountId", Value: "b\x1fc"},
	})

	tests := []struct {
		terms []string
		want  store.Ref
	}{
		{terms: []string{"a\x1fb", "c"}, want: first.Ref},
		{terms: []string{"a", "b\x1fc"}, want: second.Ref},
	}
	for _, test := range tests {
		got, err := s.Get(ctx, store.ByIndex(records.AccountsByProviderAccountID, test.terms...))
		if err != nil || got == nil {
			t.Fatalf("Get(%q) = %v, %v", test.terms, got, err)
		}
		if got.Ref != test.want {
			t.Errorf("Get(%q) = %v, want %v", test.terms, got.Ref, test.want)
		}
	}
}

func testDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	created := mustCreate(t, s, records.VerificationRequests, bson.D{
		{Key: "identifier", Value: "ada@example.com"},
		{Key: "token", Value: "hash"},
	})
	mustCreate(t, s, records.VerificationRequests, bson.D{
		{Key: "identifier", Value: "ada@example.com"},
		{Key: "token", Value: "other"},
	})

	target := store.ByIndex(records.VerificationRequestsByToken, "ada@example.com", "hash")
	deleted, err := s.Delete(ctx, target)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted == nil || deleted.Ref != created.Ref {
		t.Fatalf("Delete() = %v, want %v", deleted, created.Ref)
	}
	if got := lookupString(t, deleted.Raw, "token"); got != "hash" {
		t.Errorf("deleted token = %q, want hash", got)
	}

	again, err := s.Delete(ctx, target)
	if err != nil || again != nil {
		t.Errorf("second Delete() = %v, %v, want nil, nil", again, err)
	}

	other, err := s.Get(ctx, store.ByIndex(records.VerificationRequestsByToken, "ada@example.com", "other"))
	if err != nil || other == nil {
		t.Errorf("sibling request must survive, got %v, %v", other, err)
	}
}

func testUnknownIndex(t *testing.T, s store.Store) {
	_, err := s.Get(context.Background(), store.ByIndex("no_such_index", "x"))
	if !errors.Is(err, store.ErrUnknownIndex) {
		t.Errorf("Get() error = %v, want ErrUnknownIndex", err)
	}

	_, err = s.Get(context.Background(), store.ByIndex(records.UsersByEmail, "a", "b"))
	if !errors.Is(err, store.ErrTermCount) {
		t.Errorf("Get() error = %v, want ErrTermCount", err)
	}
}

func testDateTime(t *testing.T, s store.Store) {
	ctx := context.Background()
	want := bson.NewDateTimeFromTime(time.Date(2024, 3, 1, 12, 30, 45, 123_000_000, time.UTC))
	created := mustCreate(t, s, records.Sessions, bson.D{
		{Key: "sessionToken", Value: "tok"},
		{Key: "expires", Value: want},
	})

	got, err := s.Get(ctx, store.ByRef(records.Sessions, created.Ref.ID))
	if err != nil || got == nil {
		t.Fatalf("Get() = %v, %v", got, err)
	}
	dt, ok := got.Raw.Lookup("expires").DateTimeOK()
	if !ok {
		t.Fatalf("expires is %s, want datetime", got.Raw.Lookup("expires").Type)
	}
	if bson.DateTime(dt) != want {
		t.Errorf("expires = %v, want %v", bson.DateTime(dt), want)
	}
}

func testDeleteExpired(t *testing.T, s store.Store) {
	sweeper, ok := s.(store.Sweeper)
	if !ok {
		t.Skip("store does not implement Sweeper")
	}

	ctx := context.Background()
	now := time.Now()
	stale := mustCreate(t, s, records.Sessions, bson.D{
		{Key: "sessionToken", Value: "stale"},
		{Key: "expires", Value: bson.NewDateTimeFromTime(now.Add(-time.Minute))},
	})
	fresh := mustCreate(t, s, records.Sessions, bson.D{
		{Key: "sessionToken", Value: "fresh"},
		{Key: "expires", Value: bson.NewDateTimeFromTime(now.Add(time.Hour))},
	})

	n, err := sweeper.DeleteExpired(ctx, records.Sessions, records.ExpiresField, now)
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteExpired() = %d, want 1", n)
	}
	if doc, _ := s.Get(ctx, store.ByRef(records.Sessions, stale.Ref.ID)); doc != nil {
		t.Error("stale session must be swept")
	}
	if doc, _ := s.Get(ctx, store.ByRef(records.Sessions, fresh.Ref.ID)); doc == nil {
		t.Error("fresh session must survive")
	}
	if doc, _ := s.Get(ctx, store.ByIndex(records.SessionsBySessionToken, "stale")); doc != nil {
		t.Error("stale session must not resolve through its index")
	}
}
