package model

// SynchronizerModel is the Synchronizer's entire state. Per the design
// notes (spec §9) it is implemented as a plain mutable struct owned
// exclusively by the dispatcher — single-threaded dispatch makes that
// safe, and nothing outside the dispatch loop ever observes it directly.
type SynchronizerModel struct {
	Identity Identity

	Channels map[ChannelId]*Channel
	Peers    map[PeerId]*PeerState
	Documents map[DocId]*DocState

	// PendingRequests tracks local finds awaiting replies across channels,
	// keyed by document id.
	PendingRequests map[DocId]*PendingFind
}

// NewSynchronizerModel creates an empty model for the given local identity.
func NewSynchronizerModel(identity Identity) *SynchronizerModel {
	return &SynchronizerModel{
		Identity:        identity,
		Channels:        make(map[ChannelId]*Channel),
		Peers:           make(map[PeerId]*PeerState),
		Documents:       make(map[DocId]*DocState),
		PendingRequests: make(map[DocId]*PendingFind),
	}
}

// PeerFor returns (creating if absent) the PeerState for peerId, preserving
// the invariant that awareness/subscriptions survive across reconnects.
func (m *SynchronizerModel) PeerFor(identity Identity) *PeerState {
	p, ok := m.Peers[identity.PeerId]
	if !ok {
		p = NewPeerState(identity)
		m.Peers[identity.PeerId] = p
		return p
	}
	p.Identity = identity
	return p
}

// EstablishedChannels returns every established channel, in ascending
// ChannelId order, for deterministic iteration order in fan-out handlers.
func (m *SynchronizerModel) EstablishedChannels() []*Channel {
	out := make([]*Channel, 0, len(m.Channels))
	for _, c := range m.Channels {
		if c.Established() {
			out = append(out, c)
		}
	}
	sortChannels(out)
	return out
}

func sortChannels(cs []*Channel) {
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && cs[j].ChannelId < cs[j-1].ChannelId; j-- {
			cs[j], cs[j-1] = cs[j-1], cs[j]
		}
	}
}

// PeerStateForChannel resolves the PeerState owning an established channel,
// or nil if the channel is unknown or still pending.
func (m *SynchronizerModel) PeerStateForChannel(channelId ChannelId) *PeerState {
	c, ok := m.Channels[channelId]
	if !ok || !c.Established() {
		return nil
	}
	return m.Peers[c.PeerId]
}
