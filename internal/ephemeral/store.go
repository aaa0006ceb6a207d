// Package ephemeral implements the per-document, per-namespace presence/
// cursor subsystem of spec §4.8: a timerless local store for our own state,
// re-broadcast on every heartbeat, and a timed remote store that expires a
// silent peer's entries unless the engine removes them immediately on
// channel loss.
package ephemeral

import (
	"sync"
	"time"

	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/protocol"
)

// LocalStore holds this process's own ephemeral state, keyed by document
// and namespace. Unlike the default CRDT ephemeral store it never expires
// its own entries — liveness to remote peers is carried entirely by the
// heartbeat re-sending the current state on every tick (spec §4.8's
// "timerless" variant). Frames carry no timestamp of their own.
type LocalStore struct {
	mu   sync.Mutex
	docs map[model.DocId]map[string][]byte
}

// NewLocalStore creates an empty local store.
func NewLocalStore() *LocalStore {
	return &LocalStore{docs: make(map[model.DocId]map[string][]byte)}
}

// Set records data under namespace for docId, replacing any prior value.
func (s *LocalStore) Set(docId model.DocId, namespace string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.docs[docId]
	if !ok {
		ns = make(map[string][]byte)
		s.docs[docId] = ns
	}
	ns[namespace] = data
}

// Clear drops every namespace entry for docId, e.g. when the document
// itself is deleted.
func (s *LocalStore) Clear(docId model.DocId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, docId)
}

// Snapshot encodes every namespace currently held for docId into the wire
// frames a heartbeat or initial-sync broadcast sends, tagged with
// selfPeerId. An empty slice means we have no ephemeral state for this doc
// yet — callers should skip sending.
func (s *LocalStore) Snapshot(docId model.DocId, selfPeerId model.PeerId) []protocol.EphemeralStoreFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.docs[docId]
	if !ok || len(ns) == 0 {
		return nil
	}
	frames := make([]protocol.EphemeralStoreFrame, 0, len(ns))
	for namespace, data := range ns {
		frames = append(frames, protocol.EphemeralStoreFrame{PeerId: selfPeerId, Namespace: namespace, Data: data})
	}
	return frames
}

// entry is one remote peer's namespaced ephemeral value, with the local
// wall-clock time it was last refreshed.
type entry struct {
	data     []byte
	lastSeen time.Time
}

type peerDoc struct {
	peerId model.PeerId
	docId  model.DocId
}

// RemoteStore holds every other peer's ephemeral state as last applied,
// expiring entries that haven't been refreshed within ttl. Unlike
// LocalStore, this is the CRDT library's ordinary timed ephemeral store —
// each entry is stamped with the receive time passed to Apply, so the
// heartbeat's periodic re-sends keep a live peer's entries fresh
// (spec §4.8).
type RemoteStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[peerDoc]map[string]entry
}

// NewRemoteStore creates a remote store that expires entries not refreshed
// within ttl.
func NewRemoteStore(ttl time.Duration) *RemoteStore {
	return &RemoteStore{ttl: ttl, entries: make(map[peerDoc]map[string]entry)}
}

// Apply records frames as received at now, overwriting any prior value for
// the same (peer, doc, namespace) triple.
func (s *RemoteStore) Apply(docId model.DocId, frames []protocol.EphemeralStoreFrame, now time.Time) {
	if len(frames) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range frames {
		key := peerDoc{peerId: f.PeerId, docId: docId}
		ns, ok := s.entries[key]
		if !ok {
			ns = make(map[string]entry)
			s.entries[key] = ns
		}
		ns[f.Namespace] = entry{data: f.Data, lastSeen: now}
	}
}

// RemovePeer drops every entry for peerId across every document, regardless
// of ttl, the liveness rule of spec §4.8: once every channel to a peer is
// gone, its cursors disappear immediately instead of waiting for timeout.
func (s *RemoteStore) RemovePeer(peerId model.PeerId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if key.peerId == peerId {
			delete(s.entries, key)
		}
	}
}

// Snapshot returns every live (not yet expired as of now) namespace value
// for docId, keyed by peer id then namespace.
func (s *RemoteStore) Snapshot(docId model.DocId, now time.Time) map[model.PeerId]map[string][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[model.PeerId]map[string][]byte)
	for key, ns := range s.entries {
		if key.docId != docId {
			continue
		}
		live := make(map[string][]byte)
		for namespace, e := range ns {
			if now.Sub(e.lastSeen) > s.ttl {
				continue
			}
			live[namespace] = e.data
		}
		if len(live) > 0 {
			out[key.peerId] = live
		}
	}
	return out
}
