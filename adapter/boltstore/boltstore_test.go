package boltstore

import (
	"path/filepath"
	"testing"

	"github.com/jabolina/go-sync/adapter"
	"github.com/jabolina/go-sync/internal/protocol"
)

func openTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gosync.db")
	a, err := Open("storage-1", path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(a.Stop)
	return a
}

func TestOpenAnnouncesPendingStorageChannel(t *testing.T) {
	a := openTestAdapter(t)
	select {
	case ev := <-a.Events():
		if ev.Kind != adapter.EventChannelAdded || ev.Pending.AdapterId != "storage-1" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	default:
		t.Fatalf("expected a pending channel event to already be queued")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	a := openTestAdapter(t)

	if err := a.Save([]string{"doc", "doc-1", "snapshot"}, []byte("payload")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, found, err := a.Load([]string{"doc", "doc-1", "snapshot"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found || string(data) != "payload" {
		t.Fatalf("expected to load back the saved payload, got found=%v data=%q", found, data)
	}
}

func TestLoadMissingKeyReportsNotFound(t *testing.T) {
	a := openTestAdapter(t)
	_, found, err := a.Load([]string{"doc", "missing"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if found {
		t.Fatalf("expected found=false for a never-saved key")
	}
}

func TestRemoveDeletesStoredValue(t *testing.T) {
	a := openTestAdapter(t)
	if err := a.Save([]string{"doc", "doc-1"}, []byte("x")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := a.Remove([]string{"doc", "doc-1"}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	_, found, err := a.Load([]string{"doc", "doc-1"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if found {
		t.Fatalf("expected the value to be gone after Remove")
	}
}

func TestLoadRangeReturnsOnlyMatchingPrefix(t *testing.T) {
	a := openTestAdapter(t)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	must(a.Save([]string{"doc", "doc-1", "a"}, []byte("1")))
	must(a.Save([]string{"doc", "doc-1", "b"}, []byte("2")))
	must(a.Save([]string{"doc", "doc-2", "a"}, []byte("3")))

	values, err := a.LoadRange([]string{"doc", "doc-1"})
	if err != nil {
		t.Fatalf("LoadRange: %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("expected 2 values under the doc-1 prefix, got %d: %q", len(values), values)
	}
}

func TestRemoveRangeDeletesOnlyMatchingPrefix(t *testing.T) {
	a := openTestAdapter(t)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	must(a.Save([]string{"doc", "doc-1", "a"}, []byte("1")))
	must(a.Save([]string{"doc", "doc-2", "a"}, []byte("2")))

	if err := a.RemoveRange([]string{"doc", "doc-1"}); err != nil {
		t.Fatalf("RemoveRange: %v", err)
	}

	if _, found, _ := a.Load([]string{"doc", "doc-1", "a"}); found {
		t.Fatalf("expected doc-1 entries removed")
	}
	if _, found, _ := a.Load([]string{"doc", "doc-2", "a"}); !found {
		t.Fatalf("expected doc-2 entries untouched")
	}
}

func TestSendAppendsSequentialLogEntries(t *testing.T) {
	a := openTestAdapter(t)

	if err := a.Send(adapter.Envelope{Message: protocol.DirectoryRequest{}}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := a.Send(adapter.Envelope{Message: protocol.DirectoryRequest{}}); err != nil {
		t.Fatalf("second Send: %v", err)
	}

	entries, err := a.LoadRange([]string{"log"})
	if err != nil {
		t.Fatalf("LoadRange: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
}

func TestStopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gosync.db")
	a, err := Open("storage-1", path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	a.Stop()
	a.Stop()
}
