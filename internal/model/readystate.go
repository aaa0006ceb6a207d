package model

// ReadyStatus is the externally observable status of a document on a
// channel (spec §3, §4.9).
type ReadyStatus int

const (
	ReadyLoading ReadyStatus = iota
	ReadyFound
	ReadyNotFound
	ReadySynced
)

func (s ReadyStatus) String() string {
	switch s {
	case ReadyFound:
		return "found"
	case ReadyNotFound:
		return "not-found"
	case ReadySynced:
		return "synced"
	default:
		return "loading"
	}
}

// ReadyState is one entry of the per-document, per-channel ready-state set
// the façade uses to resolve waitForSync.
type ReadyState struct {
	ChannelId ChannelId
	Kind      ChannelKind
	PeerId    PeerId // empty when the channel has no established peer yet
	Status    ReadyStatus
}

// Equal reports deep, version-vector-aware equality between two ready
// state entries, per spec §4.9's "deep compare, with version-vector-aware
// equality".
func (r ReadyState) Equal(other ReadyState) bool {
	return r.ChannelId == other.ChannelId &&
		r.Kind == other.Kind &&
		r.PeerId == other.PeerId &&
		r.Status == other.Status
}

// ReadyStateSet is the full set of ready states for one document, keyed by
// channel for stable comparison.
type ReadyStateSet map[ChannelId]ReadyState

// Equal performs the deep compare spec §4.9 requires before re-emitting
// ready-state-changed.
func (s ReadyStateSet) Equal(other ReadyStateSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id, rs := range s {
		o, ok := other[id]
		if !ok || !rs.Equal(o) {
			return false
		}
	}
	return true
}

// Clone returns a shallow copy safe to store as "last emitted".
func (s ReadyStateSet) Clone() ReadyStateSet {
	out := make(ReadyStateSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
