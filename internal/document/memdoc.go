package document

import (
	"bytes"
	"encoding/json"
	"sort"
	"sync"

	"github.com/jabolina/go-sync/internal/model"
)

// TextDocument is a small reference CRDT: an append-only sequence of text
// fragments, each stamped with the replica that authored it and a
// per-replica sequence number. It exists so internal/synctest and the
// adapter examples have a concrete, idempotent model.DocumentHandle to
// drive end to end — the spec treats the real CRDT library as an external
// collaborator (spec §1), so this is deliberately minimal rather than a
// general-purpose text CRDT (no tombstones, no interleaving resolution
// beyond a stable sort).
type TextDocument struct {
	mu       sync.Mutex
	docId    model.DocId
	replica  string
	seq      uint64
	fragments []fragment
	subs     []func(model.ChangeSource)
}

type fragment struct {
	Replica string `json:"replica"`
	Seq     uint64 `json:"seq"`
	Text    string `json:"text"`
}

// NewTextDocument creates an empty document authored, locally, by replica.
func NewTextDocument(docId model.DocId, replica string) *TextDocument {
	return &TextDocument{docId: docId, replica: replica}
}

func (d *TextDocument) DocId() model.DocId { return d.docId }

// Insert appends text as a new fragment authored by the local replica and
// notifies subscribers of a local change.
func (d *TextDocument) Insert(text string) {
	d.mu.Lock()
	d.seq++
	d.fragments = append(d.fragments, fragment{Replica: d.replica, Seq: d.seq, Text: text})
	subs := append([]func(model.ChangeSource){}, d.subs...)
	d.mu.Unlock()

	for _, cb := range subs {
		if cb != nil {
			cb(model.ChangeLocal)
		}
	}
}

// Text materializes the document content by sorting fragments by (seq,
// replica) — stable and deterministic across replicas once they've
// observed the same fragments.
func (d *TextDocument) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.textLocked()
}

func (d *TextDocument) textLocked() string {
	frags := append([]fragment{}, d.fragments...)
	sort.Slice(frags, func(i, j int) bool {
		if frags[i].Seq != frags[j].Seq {
			return frags[i].Seq < frags[j].Seq
		}
		return frags[i].Replica < frags[j].Replica
	})
	var b bytes.Buffer
	for _, f := range frags {
		b.WriteString(f.Text)
	}
	return b.String()
}

func (d *TextDocument) Version() model.VersionVector {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.versionLocked()
}

func (d *TextDocument) versionLocked() VersionVector {
	v := VersionVector{}
	for _, f := range d.fragments {
		if f.Seq > v[f.Replica] {
			v[f.Replica] = f.Seq
		}
	}
	return v
}

func (d *TextDocument) ExportSnapshot() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return json.Marshal(d.fragments)
}

// ExportUpdateSince serializes only fragments not reflected in since.
func (d *TextDocument) ExportUpdateSince(since model.VersionVector) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sv, _ := since.(VersionVector)
	var delta []fragment
	for _, f := range d.fragments {
		if f.Seq > sv[f.Replica] {
			delta = append(delta, f)
		}
	}
	return json.Marshal(delta)
}

// Import merges previously exported fragments. Re-importing the same data
// is a no-op thanks to the (replica, seq) dedup, satisfying the idempotence
// contract of spec §4.5/§8.
func (d *TextDocument) Import(data []byte) error {
	var incoming []fragment
	if len(data) > 0 {
		if err := json.Unmarshal(data, &incoming); err != nil {
			return err
		}
	}

	d.mu.Lock()
	changed := false
	seen := make(map[[2]interface{}]struct{}, len(d.fragments))
	for _, f := range d.fragments {
		seen[[2]interface{}{f.Replica, f.Seq}] = struct{}{}
	}
	for _, f := range incoming {
		key := [2]interface{}{f.Replica, f.Seq}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		d.fragments = append(d.fragments, f)
		changed = true
	}
	subs := append([]func(model.ChangeSource){}, d.subs...)
	d.mu.Unlock()

	if changed {
		for _, cb := range subs {
			if cb != nil {
				cb(model.ChangeImport)
			}
		}
	}
	return nil
}

func (d *TextDocument) Subscribe(cb func(source model.ChangeSource)) model.Disposer {
	d.mu.Lock()
	d.subs = append(d.subs, cb)
	idx := len(d.subs) - 1
	d.mu.Unlock()

	return model.DisposerFunc(func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if idx < len(d.subs) {
			d.subs[idx] = nil
		}
	})
}
