package repo

import (
	"context"

	"github.com/jabolina/go-sync/internal/model"
)

// Doc is the reactive handle an embedder holds for one document: the
// concrete DocId plus the schema it was fetched with, paired with the
// underlying engine-agnostic DocumentHandle (spec §4.10, §6's
// "doc.change(mutator)").
type Doc struct {
	docId  model.DocId
	schema Schema
	handle model.DocumentHandle
	repo   *Repo
}

// Id returns the document's id.
func (d *Doc) Id() model.DocId {
	return d.docId
}

// Handle exposes the underlying DocumentHandle for callers that need the
// concrete CRDT type to read or subscribe to content directly.
func (d *Doc) Handle() model.DocumentHandle {
	return d.handle
}

// Change runs mutator against the underlying DocumentHandle. The engine is
// content-agnostic (spec §1's "DocumentEngine is out of scope"), so
// mutator is expected to type-assert the handle to the embedder's concrete
// document type and call its own mutation methods; whatever Subscribe
// callback the concrete type fires as a result is what feeds the resulting
// change back into the dispatch loop (spec §5).
func (d *Doc) Change(mutator func(handle model.DocumentHandle)) {
	mutator(d.handle)
}

// WaitForSync blocks until at least one established channel of kind
// carries this document with ready-state synced, or ctx ends first.
func (d *Doc) WaitForSync(ctx context.Context, kind model.ChannelKind) error {
	return d.repo.WaitForSync(ctx, d.docId, kind)
}

// Delete removes this document from the repo, equivalent to calling
// Repo.Delete(d.Id()).
func (d *Doc) Delete() {
	d.repo.Delete(d.docId)
}
