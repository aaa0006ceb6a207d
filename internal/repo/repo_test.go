package repo

import (
	"context"
	"testing"
	"time"

	"github.com/jabolina/go-sync/internal/document"
	"github.com/jabolina/go-sync/internal/logging"
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/permission"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	identity := model.Identity{PeerId: "self", Name: "self", Kind: model.IdentityUser}
	factory := func(docId model.DocId) model.DocumentHandle {
		return document.NewTextDocument(docId, "self")
	}
	r := New(identity, permission.AllowAll(), factory, logging.NewNoopLogger(), time.Hour)
	r.Start()
	t.Cleanup(r.Stop)
	return r
}

func TestGetCachesAndReturnsSameDoc(t *testing.T) {
	r := newTestRepo(t)

	first, err := r.Get("doc-1", "text")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	second, err := r.Get("doc-1", "text")
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if first != second {
		t.Fatalf("expected the same *Doc instance on a repeat Get")
	}
}

func TestGetSchemaMismatchIsRejected(t *testing.T) {
	r := newTestRepo(t)

	if _, err := r.Get("doc-1", "text"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := r.Get("doc-1", "json"); err == nil {
		t.Fatalf("expected ErrSchemaMismatch for a differing schema")
	}
}

func TestDeleteClearsCacheAndResolvesWaiters(t *testing.T) {
	r := newTestRepo(t)
	doc, err := r.Get("doc-1", "text")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	waitDone := make(chan error, 1)
	go func() { waitDone <- doc.WaitForSync(ctx, model.ChannelNetwork) }()

	time.Sleep(20 * time.Millisecond)
	r.Delete("doc-1")

	select {
	case err := <-waitDone:
		if err != nil {
			t.Fatalf("expected Delete to resolve pending waiters without error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected Delete to unblock WaitForSync promptly")
	}

	if _, err := r.Get("doc-1", "json"); err != nil {
		t.Fatalf("expected the cache entry to be gone after Delete, got %v", err)
	}
}

func TestResetDeletesEveryCachedDoc(t *testing.T) {
	r := newTestRepo(t)
	if _, err := r.Get("doc-1", "text"); err != nil {
		t.Fatalf("Get doc-1: %v", err)
	}
	if _, err := r.Get("doc-2", "text"); err != nil {
		t.Fatalf("Get doc-2: %v", err)
	}

	r.Reset()

	if states := r.ReadyStates("doc-1"); states != nil {
		t.Fatalf("expected no ready states left for doc-1 after Reset, got %+v", states)
	}
	if _, err := r.Get("doc-1", "json"); err != nil {
		t.Fatalf("expected doc-1's cache entry cleared by Reset, got %v", err)
	}
}

func TestWaitForSyncTimesOutWithoutEstablishedChannel(t *testing.T) {
	r := newTestRepo(t)
	doc, err := r.Get("doc-1", "text")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := doc.WaitForSync(ctx, model.ChannelNetwork); err != ErrUnavailable {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestReadyStatesEmptyForUnknownDoc(t *testing.T) {
	r := newTestRepo(t)
	if states := r.ReadyStates("missing"); states != nil {
		t.Fatalf("expected no ready states for an unseen doc, got %+v", states)
	}
}
