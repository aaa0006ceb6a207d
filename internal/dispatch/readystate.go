package dispatch

import "github.com/jabolina/go-sync/internal/model"

// readyStateCmdsForAllDocs recomputes the ready-state set for every known
// document and emits EmitReadyStateChangedCmd for the ones that changed,
// per spec §4.9's "deep compare, with version-vector-aware equality"
// before re-emitting. It is called at the end of every handler that could
// plausibly move a document's readiness, rather than threaded individually
// through each one — cheap relative to the I/O each handler already does,
// and it keeps the per-handler code honest about what state it touched.
func (d *Dispatcher) readyStateCmdsForAllDocs() []Cmd {
	var cmds []Cmd
	for docId, state := range d.model.Documents {
		next := d.readyStateSetFor(docId, state)
		prev, known := d.lastReadyStates[docId]
		if known && prev.Equal(next) {
			continue
		}
		d.lastReadyStates[docId] = next
		cmds = append(cmds, EmitReadyStateChangedCmd{DocId: docId, States: flattenReadyStates(next)})
	}
	return cmds
}

func (d *Dispatcher) readyStateSetFor(docId model.DocId, state *model.DocState) model.ReadyStateSet {
	out := make(model.ReadyStateSet, len(d.model.Channels))
	ourVersion := state.Doc.Version()

	for _, ch := range d.model.Channels {
		if !ch.Established() {
			out[ch.ChannelId] = model.ReadyState{
				ChannelId: ch.ChannelId,
				Kind:      ch.Kind,
				Status:    model.ReadyLoading,
			}
			continue
		}

		if !d.rules.Visible(docId, ch.PeerId) {
			continue
		}

		status := model.ReadyFound
		if peer, ok := d.model.Peers[ch.PeerId]; ok {
			awareness := peer.AwarenessOf(docId)
			switch awareness.Status {
			case model.AwarenessAbsent:
				status = model.ReadyNotFound
			case model.AwarenessSynced:
				if ourVersion.LessOrEqual(awareness.LastKnownVersion) {
					status = model.ReadySynced
				}
			default:
				status = model.ReadyFound
			}
		}

		out[ch.ChannelId] = model.ReadyState{
			ChannelId: ch.ChannelId,
			Kind:      ch.Kind,
			PeerId:    ch.PeerId,
			Status:    status,
		}
	}
	return out
}

func flattenReadyStates(set model.ReadyStateSet) []model.ReadyState {
	out := make([]model.ReadyState, 0, len(set))
	for _, rs := range set {
		out = append(out, rs)
	}
	return out
}
