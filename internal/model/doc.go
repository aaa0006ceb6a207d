package model

// DocState tracks one locally-known document. It is created by doc-ensure
// (a local request or a peer announcement) and only ever removed by an
// explicit local doc-delete (spec §3).
type DocState struct {
	DocId DocId
	Doc   DocumentHandle

	// Mergeable selects what propagation sends a subscribed peer: an
	// incremental update since the peer's last known version when true, a
	// full snapshot when false. Replies to a sync-request do not consult
	// it; they choose by the requester's version alone.
	Mergeable bool

	// localChangeSubscription is the disposer for Doc.Subscribe, set once
	// the effect runtime wires it up.
	localChangeSubscription Disposer

	// Subscribers: peers that asked (via sync-request) to receive updates
	// for this document. Invariant: every entry here must also have a
	// live channel (spec §8 invariant 3) — enforced by the dispatcher,
	// not by this set itself.
	Subscribers map[PeerId]struct{}
}

// NewDocState creates a DocState shell; Doc must be set by the caller once
// the handle has been created/loaded.
func NewDocState(docId DocId, doc DocumentHandle, mergeable bool) *DocState {
	return &DocState{
		DocId:       docId,
		Doc:         doc,
		Mergeable:   mergeable,
		Subscribers: make(map[PeerId]struct{}),
	}
}

// SetLocalChangeSubscription stores the disposer so DocDelete can clean up.
func (d *DocState) SetLocalChangeSubscription(disposer Disposer) {
	d.localChangeSubscription = disposer
}

// DisposeSubscription releases the change subscription, if any.
func (d *DocState) DisposeSubscription() {
	if d.localChangeSubscription != nil {
		d.localChangeSubscription.Dispose()
		d.localChangeSubscription = nil
	}
}

// AddSubscriber records that peerId asked to be kept in sync for this doc.
func (d *DocState) AddSubscriber(peerId PeerId) {
	d.Subscribers[peerId] = struct{}{}
}

// RemoveSubscriber drops peerId from the subscription set (used when its
// last channel disappears, preserving invariant 3 of spec §8).
func (d *DocState) RemoveSubscriber(peerId PeerId) {
	delete(d.Subscribers, peerId)
}

// IsSubscriber reports whether peerId is subscribed to this document.
func (d *DocState) IsSubscriber(peerId PeerId) bool {
	_, ok := d.Subscribers[peerId]
	return ok
}
