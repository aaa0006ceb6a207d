package dispatch

import (
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/protocol"
)

// handleDirectoryRequest replies with every document visible to the
// requesting peer (spec §4.4).
func (d *Dispatcher) handleDirectoryRequest(ch *model.Channel) []Cmd {
	var docIds []model.DocId
	for docId := range d.model.Documents {
		if d.rules.Visible(docId, ch.PeerId) {
			docIds = append(docIds, docId)
		}
	}
	return []Cmd{SendCmd{
		ToChannelIds: []model.ChannelId{ch.ChannelId},
		Message:      protocol.DirectoryResponse{DocIds: docIds},
	}}
}

// handleDirectoryResponse creates a local (loading) DocState and sends a
// sync-request for every listed doc id we don't already know; docs we
// already track are left alone, since a fresh request would be redundant
// (spec §4.4).
func (d *Dispatcher) handleDirectoryResponse(ch *model.Channel, msg protocol.DirectoryResponse) []Cmd {
	peer := d.model.Peers[ch.PeerId]
	if peer == nil {
		return nil
	}

	var cmds []Cmd
	var toRequest []protocol.SyncDocRequest
	for _, docId := range msg.DocIds {
		if _, known := d.model.Documents[docId]; known {
			continue
		}
		newCmds, _ := d.ensureDoc(docId, true, nil)
		cmds = append(cmds, newCmds...)
		peer.SetAwareness(docId, model.Awareness{Status: model.AwarenessPending})
		toRequest = append(toRequest, protocol.SyncDocRequest{DocId: docId})
	}
	if len(toRequest) > 0 {
		cmds = append(cmds, SendCmd{
			ToChannelIds: []model.ChannelId{ch.ChannelId},
			Message:      protocol.SyncRequest{Docs: toRequest},
		})
	}
	cmds = append(cmds, d.readyStateCmdsForAllDocs()...)
	return cmds
}

// handleNewDoc is the "announce, don't send" variant: the recipient
// decides whether to request the document (spec §4.4). It requests the
// document only if it doesn't already know it, and skips it (leaves it
// alone) if it does — a fresh request would be redundant.
func (d *Dispatcher) handleNewDoc(ch *model.Channel, msg protocol.NewDoc) []Cmd {
	peer := d.model.Peers[ch.PeerId]
	if peer == nil {
		return nil
	}

	var cmds []Cmd
	var toRequest []protocol.SyncDocRequest
	for _, docId := range msg.DocIds {
		if _, known := d.model.Documents[docId]; known {
			continue
		}
		newCmds, _ := d.ensureDoc(docId, true, nil)
		cmds = append(cmds, newCmds...)
		peer.SetAwareness(docId, model.Awareness{Status: model.AwarenessPending})
		toRequest = append(toRequest, protocol.SyncDocRequest{DocId: docId})
	}
	if len(toRequest) > 0 {
		cmds = append(cmds, SendCmd{
			ToChannelIds: []model.ChannelId{ch.ChannelId},
			Message:      protocol.SyncRequest{Docs: toRequest},
		})
	}
	cmds = append(cmds, d.readyStateCmdsForAllDocs()...)
	return cmds
}
