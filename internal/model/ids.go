// Package model holds the Synchronizer's data model: the types every other
// package (dispatch, runtime, repo) reads and mutates. It intentionally has
// no knowledge of transports, wire formats or CRDT internals — those are
// capabilities injected from outside (see DocumentHandle, adapter.Adapter).
package model

import "fmt"

// ChannelId is a dense, process-local identifier assigned to a channel the
// moment an adapter reports it. It is never reused within a process lifetime.
type ChannelId uint64

func (c ChannelId) String() string {
	return fmt.Sprintf("chan-%d", uint64(c))
}

// PeerId is an opaque stable identifier agreed between peers out of band.
type PeerId string

// DocId is an opaque identifier for a CRDT document.
type DocId string

// ChannelIdSource hands out monotonically increasing ChannelIds. It is owned
// by whichever component registers adapters (normally the effect runtime),
// mirroring the teacher's dense local-integer peer identifiers.
type ChannelIdSource struct {
	next uint64
}

// Next returns the next ChannelId and advances the source.
func (s *ChannelIdSource) Next() ChannelId {
	s.next++
	return ChannelId(s.next)
}
