package document

import "github.com/jabolina/go-sync/internal/model"

// VersionVector is a reference implementation of model.VersionVector: a
// map from replica id to the highest operation sequence number observed
// from that replica. It is the version-vector type returned by the
// reference document implementations in this package (memdoc.go) and used
// throughout internal/synctest.
type VersionVector map[string]uint64

// Empty reports the zero-knowledge vector a fresh replica starts from, and
// the value a sync-request with no RequesterVersion should be compared
// against.
func Empty() VersionVector { return VersionVector{} }

func (v VersionVector) IsEmpty() bool {
	return len(v) == 0
}

// LessOrEqual implements ⊑: v is dominated by other when, for every
// replica v has seen, other has seen at least as much.
func (v VersionVector) LessOrEqual(other model.VersionVector) bool {
	o, ok := other.(VersionVector)
	if !ok {
		return false
	}
	for replica, seq := range v {
		if o[replica] < seq {
			return false
		}
	}
	return true
}

// Merge implements ∪: the pointwise maximum of both vectors.
func (v VersionVector) Merge(other model.VersionVector) model.VersionVector {
	o, ok := other.(VersionVector)
	out := make(VersionVector, len(v))
	for replica, seq := range v {
		out[replica] = seq
	}
	if ok {
		for replica, seq := range o {
			if seq > out[replica] {
				out[replica] = seq
			}
		}
	}
	return out
}

// Clone returns an independent copy.
func (v VersionVector) Clone() VersionVector {
	out := make(VersionVector, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Equal reports whether both vectors carry identical entries.
func (v VersionVector) Equal(other VersionVector) bool {
	if len(v) != len(other) {
		return false
	}
	for k, val := range v {
		if other[k] != val {
			return false
		}
	}
	return true
}
