package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/lborres/docauth/core"
	"github.com/lborres/docauth/records"
	"github.com/lborres/docauth/store"
)

// FakeStore is a test-only store.Store backed by store.Memory.
// It exposes error fields for behavior injection and counts calls.
type FakeStore struct {
	*store.Memory

	mu        sync.Mutex
	createErr error
	getErr    error
	updateErr error
	deleteErr error

	creates int
	gets    int
	updates int
	deletes int
}

var _ store.Store = (*FakeStore)(nil)

func NewFakeStore() *FakeStore {
	return &FakeStore{Memory: store.NewMemory(records.Indexes()...)}
}

func (f *FakeStore) Create(ctx context.Context, collection string, doc any) (*store.Document, error) {
	f.mu.Lock()
	f.creates++
	err := f.createErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Memory.Create(ctx, collection, doc)
}

func (f *FakeStore) Get(ctx context.Context, target store.Target) (*store.Document, error) {
	f.mu.Lock()
	f.gets++
	err := f.getErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Memory.Get(ctx, target)
}

func (f *FakeStore) Update(ctx context.Context, target store.Target, fields bson.M) (*store.Document, error) {
	f.mu.Lock()
	f.updates++
	err := f.updateErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Memory.Update(ctx, target, fields)
}

func (f *FakeStore) Delete(ctx context.Context, target store.Target) (*store.Document, error) {
	f.mu.Lock()
	f.deletes++
	err := f.deleteErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Memory.Delete(ctx, target)
}

// raw returns the stored payload for a reference, bypassing counters.
func (f *FakeStore) raw(t *testing.T, collection, id string) bson.Raw {
	t.Helper()
	doc, err := f.Memory.Get(context.Background(), store.ByRef(collection, id))
	if err != nil {
		t.Fatalf("raw(%s/%s) error = %v", collection, id, err)
	}
	if doc == nil {
		return nil
	}
	return doc.Raw
}

// FakeSender records every message it is asked to send.
type FakeSender struct {
	mu       sync.Mutex
	messages []core.VerificationMessage
	err      error
}

func (f *FakeSender) SendVerificationRequest(ctx context.Context, msg core.VerificationMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return f.err
}

func (f *FakeSender) Messages() []core.VerificationMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.VerificationMessage(nil), f.messages...)
}

// FakeRecorder counts lifecycle events.
type FakeRecorder struct {
	mu     sync.Mutex
	events map[string]int
}

var _ core.Recorder = (*FakeRecorder)(nil)

func NewFakeRecorder() *FakeRecorder {
	return &FakeRecorder{events: make(map[string]int)}
}

func (f *FakeRecorder) inc(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[name]++
}

func (f *FakeRecorder) Count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[name]
}

func (f *FakeRecorder) SessionCreated()             { f.inc("session_created") }
func (f *FakeRecorder) SessionRenewed()             { f.inc("session_renewed") }
func (f *FakeRecorder) SessionExpired()             { f.inc("session_expired") }
func (f *FakeRecorder) SessionDeleted()             { f.inc("session_deleted") }
func (f *FakeRecorder) VerificationCreated()        { f.inc("verification_created") }
func (f *FakeRecorder) VerificationDeliveryFailed() { f.inc("verification_delivery_failed") }
func (f *FakeRecorder) VerificationExpired()        { f.inc("verification_expired") }
func (f *FakeRecorder) ExpiredPurgeFailed(kind string) {
	f.inc("purge_failed_" + kind)
}
func (f *FakeRecorder) Swept(collection string, n int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events["swept_"+collection] += int(n)
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
