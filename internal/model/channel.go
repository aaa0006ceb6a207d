package model

// ChannelKind distinguishes a peer-facing network channel from a
// local storage-adapter channel (storage channels skip the identity
// handshake, spec §4.3).
type ChannelKind int

const (
	ChannelNetwork ChannelKind = iota
	ChannelStorage
)

func (k ChannelKind) String() string {
	if k == ChannelStorage {
		return "storage"
	}
	return "network"
}

// ChannelStatus is the two-state channel lifecycle of spec §4.3.
type ChannelStatus int

const (
	ChannelPending ChannelStatus = iota
	ChannelEstablished
)

// Channel is the tagged variant of spec §3: Pending carries only the
// adapter-assigned identity; Established additionally carries the peer's
// identity once the handshake completes. Rather than two Go types we use
// one struct gated by Status, since every handler needs to read
// AdapterId/Kind regardless of status and a sum-type-via-interface would
// force a type switch at every call site for no benefit here.
type Channel struct {
	ChannelId ChannelId
	AdapterId string
	Kind      ChannelKind
	Status    ChannelStatus

	// Valid only when Status == ChannelEstablished.
	PeerId         PeerId
	RemoteIdentity Identity
}

// Established reports whether the handshake has completed.
func (c Channel) Established() bool {
	return c.Status == ChannelEstablished
}
