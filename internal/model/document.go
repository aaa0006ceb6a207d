package model

// VersionVector is the CRDT library's partially-ordered summary of the
// operations a replica has observed. The Synchronizer never inspects its
// internals; it only ever compares (LessOrEqual) or combines (Merge) them.
type VersionVector interface {
	// LessOrEqual reports whether this vector is dominated by other (⊑),
	// i.e. other's replica is at least as advanced.
	LessOrEqual(other VersionVector) bool

	// Merge returns the least upper bound of this vector and other (∪).
	Merge(other VersionVector) VersionVector

	// IsEmpty reports whether the vector carries no observed operations,
	// i.e. the requester side of a sync-request that has nothing yet.
	IsEmpty() bool
}

// ChangeSource distinguishes a genuinely local edit from an import applied
// because of an inbound remote update — the propagation algorithm (spec
// §4.6) uses this to decide whether to exclude the originating channel.
type ChangeSource int

const (
	ChangeLocal ChangeSource = iota
	ChangeImport
)

// Disposer releases a resource acquired through a Subscribe call.
type Disposer interface {
	Dispose()
}

// DisposerFunc adapts a plain function to Disposer.
type DisposerFunc func()

func (f DisposerFunc) Dispose() { f() }

// DocumentHandle is the thin capability the Synchronizer consumes from the
// CRDT library for a single document replica (spec §1's "DocumentEngine").
// Import and Export are contractually synchronous and fast (spec §5);
// Import must be idempotent.
type DocumentHandle interface {
	DocId() DocId

	// Version returns the replica's current version vector.
	Version() VersionVector

	// ExportSnapshot serializes the full document state.
	ExportSnapshot() ([]byte, error)

	// ExportUpdateSince serializes only the operations not reflected in
	// since.
	ExportUpdateSince(since VersionVector) ([]byte, error)

	// Import applies previously exported bytes (snapshot or incremental
	// update) to this replica. Safe to call with the same data twice.
	Import(data []byte) error

	// Subscribe registers cb to be invoked every time the document
	// changes, whether from a local mutation or from Import. The returned
	// Disposer cancels the subscription.
	Subscribe(cb func(source ChangeSource)) Disposer
}
