package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"saas-platform/internal/model"
)

type memStore struct {
	mu      sync.Mutex
	entries []*model.AuditLog
	fail    bool
}

func (m *memStore) Append(ctx context.Context, entry *model.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("store unavailable")
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func TestRecorderAppendsEntries(t *testing.T) {
	store := &memStore{}
	r := NewRecorder(store, zap.NewNop(), 8)

	tenantID := "tenant-1"
	userID := "user-1"
	r.Record(Entry{
		TenantID:   &tenantID,
		UserID:     &userID,
		Action:     "login",
		EntityType: "user",
		EntityID:   userID,
		IPAddress:  "203.0.113.9",
	})
	r.Close()

	if store.count() != 1 {
		t.Fatalf("expected 1 entry, got %d", store.count())
	}
	got := store.entries[0]
	if got.Action != "login" || got.EntityType != "user" {
		t.Fatalf("unexpected entry %+v", got)
	}
	if got.TenantID == nil || *got.TenantID != tenantID {
		t.Fatalf("tenant id lost: %+v", got)
	}
	if got.IPAddress != "203.0.113.9" {
		t.Fatalf("ip address lost: %+v", got)
	}
}

func TestFailingStoreNeverPropagates(t *testing.T) {
	store := &memStore{fail: true}
	r := NewRecorder(store, zap.NewNop(), 8)

	// Record must not panic, block, or surface the store failure
	r.Record(Entry{Action: "tenant_registered", EntityType: "tenant"})
	r.Close()

	if store.count() != 0 {
		t.Fatalf("failing store should hold no entries")
	}
}

func TestFullBufferDropsInsteadOfBlocking(t *testing.T) {
	store := &memStore{}
	r := &Recorder{
		store:   store,
		log:     zap.NewNop(),
		entries: make(chan Entry, 1),
		done:    make(chan struct{}),
	}
	// No writer goroutine: the second record must drop, not block
	r.Record(Entry{Action: "first"})

	finished := make(chan struct{})
	go func() {
		r.Record(Entry{Action: "second"})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatalf("Record blocked on a full buffer")
	}
}

func TestCloseDrains(t *testing.T) {
	store := &memStore{}
	r := NewRecorder(store, zap.NewNop(), 64)
	for i := 0; i < 50; i++ {
		r.Record(Entry{Action: "task_created", EntityType: "task"})
	}
	r.Close()

	if store.count() != 50 {
		t.Fatalf("expected Close to drain all 50 entries, got %d", store.count())
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	r := NewRecorder(&memStore{}, zap.NewNop(), 4)
	r.Close()
	r.Close()
}
