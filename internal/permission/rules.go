// Package permission holds the pure predicates embedders supply for
// document visibility/mutability (spec §1, §4.1). The Synchronizer never
// implements authentication itself — these are the only hooks it exposes.
package permission

import "github.com/jabolina/go-sync/internal/model"

// Rules is the pair of pure predicates the embedder supplies. Both default
// to "allow" when nil, matching an embedder that hasn't opted into
// restrictions.
type Rules struct {
	// Visibility reports whether peer may be told this document exists at
	// all (directory listing, new-doc announcements).
	Visibility func(docId model.DocId, peer model.PeerId) bool

	// Mutability reports whether peer may receive this document's content.
	// A visible-but-not-mutable document still gets listed, but sync
	// requests for it are answered with up-to-date instead of content
	// (spec §4.5 — silent refusal, no distinct error).
	Mutability func(docId model.DocId, peer model.PeerId) bool
}

// AllowAll returns permission rules that admit every peer to every
// document, the default an embedder gets by passing a zero Rules value.
func AllowAll() Rules {
	return Rules{
		Visibility: func(model.DocId, model.PeerId) bool { return true },
		Mutability: func(model.DocId, model.PeerId) bool { return true },
	}
}

// Visible evaluates the Visibility predicate, defaulting to true when unset.
func (r Rules) Visible(docId model.DocId, peer model.PeerId) bool {
	if r.Visibility == nil {
		return true
	}
	return r.Visibility(docId, peer)
}

// Mutable evaluates the Mutability predicate, defaulting to true when
// unset.
func (r Rules) Mutable(docId model.DocId, peer model.PeerId) bool {
	if r.Mutability == nil {
		return true
	}
	return r.Mutability(docId, peer)
}
