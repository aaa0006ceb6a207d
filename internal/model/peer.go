package model

import "time"

// PeerState is kept for every peerId the engine has ever seen. It survives
// channel disconnects — only the Channels set shrinks — which is what
// powers the reconnection-awareness optimization of spec §4.3.
type PeerState struct {
	Identity Identity

	// Channels currently live to this peer.
	Channels map[ChannelId]struct{}

	// Subscriptions is not populated by the dispatcher, which records
	// subscriptions on DocState.Subscribers instead; it stays empty, so
	// IsSubscribed reports false for every document.
	Subscriptions map[DocId]struct{}

	// DocumentAwareness survives disconnects by design; entries are never
	// deleted, only replaced with a fresher one (spec §3 invariant).
	DocumentAwareness map[DocId]Awareness

	LastSeen time.Time
}

// NewPeerState creates the PeerState shell for a peer seen for the first
// time, with empty awareness (the "brand new peer" case of spec §4.3).
func NewPeerState(identity Identity) *PeerState {
	return &PeerState{
		Identity:          identity,
		Channels:          make(map[ChannelId]struct{}),
		Subscriptions:     make(map[DocId]struct{}),
		DocumentAwareness: make(map[DocId]Awareness),
	}
}

// AwarenessOf returns the peer's awareness for docId, defaulting to unknown.
func (p *PeerState) AwarenessOf(docId DocId) Awareness {
	if a, ok := p.DocumentAwareness[docId]; ok {
		return a
	}
	return UnknownAwareness()
}

// SetAwareness updates (never deletes) the awareness entry for a document.
func (p *PeerState) SetAwareness(docId DocId, a Awareness) {
	p.DocumentAwareness[docId] = a
}

// IsSubscribed reports whether the peer is in the document's subscription
// set.
func (p *PeerState) IsSubscribed(docId DocId) bool {
	_, ok := p.Subscriptions[docId]
	return ok
}

// AddChannel records a newly established channel to this peer.
func (p *PeerState) AddChannel(id ChannelId) {
	p.Channels[id] = struct{}{}
}

// RemoveChannel removes a channel (on disconnect); the PeerState itself is
// never removed.
func (p *PeerState) RemoveChannel(id ChannelId) {
	delete(p.Channels, id)
}

// HasLiveChannel reports whether the peer has at least one established
// channel.
func (p *PeerState) HasLiveChannel() bool {
	return len(p.Channels) > 0
}

// IsNew reports whether this peer has never been told about any document,
// the trigger for the "brand new peer" reconnection branch of spec §4.3.
func (p *PeerState) IsNew() bool {
	return len(p.DocumentAwareness) == 0
}
