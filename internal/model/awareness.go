package model

// AwarenessStatus is the discriminant of spec §3's Awareness union.
type AwarenessStatus int

const (
	// AwarenessUnknown: the peer has never spoken about this document.
	AwarenessUnknown AwarenessStatus = iota
	// AwarenessPending: we've sent new-doc/sync-request, no reply yet.
	AwarenessPending
	// AwarenessAbsent: the peer explicitly reported they don't have it.
	AwarenessAbsent
	// AwarenessSynced: LastKnownVersion reflects our model of their state.
	AwarenessSynced
)

func (s AwarenessStatus) String() string {
	switch s {
	case AwarenessPending:
		return "pending"
	case AwarenessAbsent:
		return "absent"
	case AwarenessSynced:
		return "synced"
	default:
		return "unknown"
	}
}

// Awareness is the engine's model of what one remote peer knows about one
// document. LastKnownVersion is only meaningful when Status == AwarenessSynced.
type Awareness struct {
	Status           AwarenessStatus
	LastKnownVersion VersionVector
}

// UnknownAwareness is the zero-value awareness entry for a document a peer
// has never been told about.
func UnknownAwareness() Awareness {
	return Awareness{Status: AwarenessUnknown}
}

// Synced builds a synced awareness entry, used throughout the sync and
// propagation handlers whenever our model of a peer's knowledge advances.
func Synced(version VersionVector) Awareness {
	return Awareness{Status: AwarenessSynced, LastKnownVersion: version}
}
