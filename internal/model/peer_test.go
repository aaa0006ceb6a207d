package model

import "testing"

func TestPeerStateIsNew(t *testing.T) {
	p := NewPeerState(Identity{PeerId: "peer-a"})
	if !p.IsNew() {
		t.Fatalf("expected a freshly created peer to be new")
	}
	p.SetAwareness("doc-1", UnknownAwareness())
	if p.IsNew() {
		t.Fatalf("expected peer to no longer be new once awareness is recorded")
	}
}

func TestPeerStateAwarenessOfDefaultsUnknown(t *testing.T) {
	p := NewPeerState(Identity{PeerId: "peer-a"})
	a := p.AwarenessOf("doc-missing")
	if a.Status != AwarenessUnknown {
		t.Fatalf("expected unknown awareness for unseen doc, got %v", a.Status)
	}
}

func TestPeerStateChannelLifecycle(t *testing.T) {
	p := NewPeerState(Identity{PeerId: "peer-a"})
	if p.HasLiveChannel() {
		t.Fatalf("expected no live channel on a fresh peer")
	}
	p.AddChannel(1)
	p.AddChannel(2)
	if !p.HasLiveChannel() {
		t.Fatalf("expected a live channel after AddChannel")
	}
	p.RemoveChannel(1)
	if !p.HasLiveChannel() {
		t.Fatalf("expected a live channel to remain after removing one of two")
	}
	p.RemoveChannel(2)
	if p.HasLiveChannel() {
		t.Fatalf("expected no live channel after removing every channel")
	}
}

func TestSynchronizerModelPeerForPreservesAwareness(t *testing.T) {
	m := NewSynchronizerModel(Identity{PeerId: "self"})
	identity := Identity{PeerId: "peer-a", Name: "first"}
	p := m.PeerFor(identity)
	p.SetAwareness("doc-1", Synced(nil))

	reconnected := m.PeerFor(Identity{PeerId: "peer-a", Name: "second"})
	if reconnected != p {
		t.Fatalf("expected PeerFor to return the same PeerState across reconnects")
	}
	if reconnected.Identity.Name != "second" {
		t.Fatalf("expected identity to be refreshed, got %q", reconnected.Identity.Name)
	}
	if _, ok := reconnected.DocumentAwareness["doc-1"]; !ok {
		t.Fatalf("expected awareness to survive across reconnects")
	}
}

func TestSynchronizerModelEstablishedChannelsSorted(t *testing.T) {
	m := NewSynchronizerModel(Identity{PeerId: "self"})
	m.Channels[3] = &Channel{ChannelId: 3, Status: ChannelEstablished}
	m.Channels[1] = &Channel{ChannelId: 1, Status: ChannelEstablished}
	m.Channels[2] = &Channel{ChannelId: 2, Status: ChannelPending}

	got := m.EstablishedChannels()
	if len(got) != 2 {
		t.Fatalf("expected 2 established channels, got %d", len(got))
	}
	if got[0].ChannelId != 1 || got[1].ChannelId != 3 {
		t.Fatalf("expected ascending order [1,3], got [%d,%d]", got[0].ChannelId, got[1].ChannelId)
	}
}
