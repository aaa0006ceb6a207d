package document

import (
	"sync"

	"github.com/jabolina/go-sync/internal/model"
)

// Factory creates a new, empty DocumentHandle for docId. Embedders supply
// one backed by their real CRDT library; internal/synctest uses
// NewTextDocument.
type Factory func(docId model.DocId) model.DocumentHandle

// Store owns DocumentHandle instances keyed by doc id, exposing
// version/export/import/subscribe indirectly through the handles it hands
// out (spec §1's DocumentStore component).
type Store struct {
	mu      sync.Mutex
	factory Factory
	docs    map[model.DocId]model.DocumentHandle
}

// NewStore creates a document store that lazily creates handles with
// factory.
func NewStore(factory Factory) *Store {
	return &Store{factory: factory, docs: make(map[model.DocId]model.DocumentHandle)}
}

// EnsureLoaded returns the handle for docId, creating (and registering) one
// if it didn't already exist. The second return reports whether a handle
// was freshly created.
func (s *Store) EnsureLoaded(docId model.DocId) (model.DocumentHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.docs[docId]; ok {
		return h, false
	}
	h := s.factory(docId)
	s.docs[docId] = h
	return h, true
}

// Get returns the handle for docId if it has been loaded.
func (s *Store) Get(docId model.DocId) (model.DocumentHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.docs[docId]
	return h, ok
}

// Delete removes the handle for docId (local-only; never propagated, per
// spec §1's non-goal on tombstones).
func (s *Store) Delete(docId model.DocId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, docId)
}
