package dispatch

import (
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/protocol"
)

// handleSyncRequest answers each requested doc independently, per the
// ordered rules of spec §4.5: mutability first (silent refusal), then
// presence, then the version comparison that picks up-to-date / snapshot /
// update.
func (d *Dispatcher) handleSyncRequest(ch *model.Channel, msg protocol.SyncRequest) []Cmd {
	var cmds []Cmd
	for _, req := range msg.Docs {
		cmds = append(cmds, d.answerSyncRequest(ch, req)...)
	}
	cmds = append(cmds, d.readyStateCmdsForAllDocs()...)
	return cmds
}

func (d *Dispatcher) answerSyncRequest(ch *model.Channel, req protocol.SyncDocRequest) []Cmd {
	peer := d.model.Peers[ch.PeerId]

	if !d.rules.Mutable(req.DocId, ch.PeerId) {
		return []Cmd{SendCmd{
			ToChannelIds: []model.ChannelId{ch.ChannelId},
			Message:      protocol.SyncResponse{DocId: req.DocId, Transmission: protocol.UpToDate{}},
		}}
	}

	state, present := d.model.Documents[req.DocId]
	if !present {
		if peer != nil {
			peer.SetAwareness(req.DocId, model.Awareness{Status: model.AwarenessAbsent})
		}
		return []Cmd{SendCmd{
			ToChannelIds: []model.ChannelId{ch.ChannelId},
			Message:      protocol.SyncResponse{DocId: req.DocId, Transmission: protocol.NotFoundTransmission{}},
		}}
	}

	ourVersion := state.Doc.Version()
	var transmission protocol.Transmission
	switch {
	case req.RequesterVersion == nil || req.RequesterVersion.IsEmpty():
		data, err := state.Doc.ExportSnapshot()
		if err != nil {
			d.log.Errorf("export snapshot for %v failed: %v", req.DocId, err)
			return nil
		}
		transmission = protocol.SnapshotTransmission{Data: data, Version: ourVersion}
	case ourVersion.LessOrEqual(req.RequesterVersion):
		transmission = protocol.UpToDate{}
	default:
		data, err := state.Doc.ExportUpdateSince(req.RequesterVersion)
		if err != nil {
			d.log.Errorf("export update for %v failed: %v", req.DocId, err)
			return nil
		}
		transmission = protocol.UpdateTransmission{Data: data, Version: ourVersion}
	}

	lastKnown := ourVersion
	if req.RequesterVersion != nil {
		lastKnown = req.RequesterVersion.Merge(ourVersion)
	}
	if peer != nil {
		peer.SetAwareness(req.DocId, model.Synced(lastKnown))
	}
	state.AddSubscriber(ch.PeerId)

	return []Cmd{SendCmd{
		ToChannelIds: []model.ChannelId{ch.ChannelId},
		Message:      protocol.SyncResponse{DocId: req.DocId, Transmission: transmission},
	}}
}

// handleSyncResponse processes the reply to a request we made: it may
// resolve a local find, apply imported data, and (only here, not for
// steady-state update messages) broadcast our ephemeral state back to the
// responder.
func (d *Dispatcher) handleSyncResponse(ch *model.Channel, msg protocol.SyncResponse) []Cmd {
	cmds := d.applyTransmission(ch, msg.DocId, msg.Transmission)

	switch msg.Transmission.Kind() {
	case protocol.TransmissionSnapshot, protocol.TransmissionUpdate:
		cmds = append(cmds, BroadcastEphemeralCmd{DocId: msg.DocId, ChannelId: ch.ChannelId})
	}

	if pending, ok := d.model.PendingRequests[msg.DocId]; ok {
		if msg.Transmission.Kind() == protocol.TransmissionNotFound {
			if allDone := pending.ReportNotFound(ch.ChannelId); allDone {
				delete(d.model.PendingRequests, msg.DocId)
				cmds = append(cmds, ResolveFindCmd{DocId: msg.DocId, Unavailable: true})
			}
		} else {
			delete(d.model.PendingRequests, msg.DocId)
			cmds = append(cmds, ResolveFindCmd{DocId: msg.DocId, Unavailable: false})
		}
	}

	cmds = append(cmds, d.readyStateCmdsForAllDocs()...)
	return cmds
}

// handleUpdateMessage applies a spontaneous post-sync update: same import
// logic as handleSyncResponse, without the ephemeral broadcast or
// find-resolution side effects (spec §4.5).
func (d *Dispatcher) handleUpdateMessage(ch *model.Channel, msg protocol.UpdateMessage) []Cmd {
	cmds := d.applyTransmission(ch, msg.DocId, msg.Transmission)
	cmds = append(cmds, d.readyStateCmdsForAllDocs()...)
	return cmds
}

// applyTransmission is the shared transmission handling for sync-response
// and update messages (spec §4.5).
func (d *Dispatcher) applyTransmission(ch *model.Channel, docId model.DocId, transmission protocol.Transmission) []Cmd {
	peer := d.model.Peers[ch.PeerId]

	switch t := transmission.(type) {
	case protocol.NotFoundTransmission:
		// The peer doesn't have this doc, but we do (the local find/edit
		// that prompted our sync-request predates theirs) — re-announce it
		// instead of just recording absence, or nothing will ever tell
		// them about it again once propagate.go treats absent+unsubscribed
		// as permanently silent (spec §4.3, §8 scenario 1's literal trace).
		if _, ok := d.model.Documents[docId]; ok {
			if peer != nil {
				peer.SetAwareness(docId, model.Awareness{Status: model.AwarenessPending})
			}
			return []Cmd{SendCmd{
				ToChannelIds: []model.ChannelId{ch.ChannelId},
				Message:      protocol.NewDoc{DocIds: []model.DocId{docId}},
			}}
		}
		if peer != nil {
			peer.SetAwareness(docId, model.Awareness{Status: model.AwarenessAbsent})
		}
		return nil

	case protocol.UpToDate:
		if peer == nil {
			return nil
		}
		if state, ok := d.model.Documents[docId]; ok {
			peer.SetAwareness(docId, model.Synced(state.Doc.Version()))
		}
		return nil

	case protocol.SnapshotTransmission:
		return d.importIntoDoc(ch, docId, t.Data, t.Version)

	case protocol.UpdateTransmission:
		return d.importIntoDoc(ch, docId, t.Data, t.Version)

	default:
		d.log.Warnf("unknown transmission kind for %v", docId)
		return nil
	}
}

// importIntoDoc applies imported bytes to the document (creating it if it
// didn't exist — a blind sync-response can arrive for a doc the local find
// just created) and advances the sender's awareness to the transmitted
// version. Import failures are logged and discarded, leaving awareness
// pending so the next reconnect retries from scratch (spec §7).
//
// Propagation to other peers runs inline here, synchronously, rather than
// waiting for the document's Subscribe callback to fire a LocalChange msg
// back through the runtime: only this call site knows which channel the
// data arrived on, needed to exclude that channel from the rebroadcast
// (spec §4.6). The runtime's own subscription only forwards genuinely
// local edits (see internal/runtime's doc-change wiring).
func (d *Dispatcher) importIntoDoc(ch *model.Channel, docId model.DocId, data []byte, version model.VersionVector) []Cmd {
	state, ok := d.model.Documents[docId]
	var cmds []Cmd
	if !ok {
		newCmds, created := d.ensureDoc(docId, true, nil)
		if created {
			cmds = append(cmds, newCmds...)
		}
		state = d.model.Documents[docId]
	}

	if err := state.Doc.Import(data); err != nil {
		d.log.Errorf("import into %v failed: %v", docId, err)
		if peer := d.model.Peers[ch.PeerId]; peer != nil {
			peer.SetAwareness(docId, model.Awareness{Status: model.AwarenessPending})
		}
		return cmds
	}

	if peer := d.model.Peers[ch.PeerId]; peer != nil {
		peer.SetAwareness(docId, model.Synced(version))
	}

	cmds = append(cmds, d.handleLocalChange(LocalChange{
		DocId:          docId,
		Source:         model.ChangeImport,
		ExcludeChannel: ch.ChannelId,
		ExcludeValid:   true,
	})...)
	return cmds
}
