package dispatch

import (
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/protocol"
)

// handleDeleteRequest answers every incoming delete-request with ignored:
// per the decided open question (spec §9), a peer's delete-request is
// informational only and never removes the local document. The only path
// that removes a DocState is a local DocDelete (spec §3).
func (d *Dispatcher) handleDeleteRequest(ch *model.Channel, msg protocol.DeleteRequest) []Cmd {
	return []Cmd{SendCmd{
		ToChannelIds: []model.ChannelId{ch.ChannelId},
		Message:      protocol.DeleteResponse{DocId: msg.DocId, Status: protocol.DeleteIgnored},
	}}
}

// handleDeleteResponse has nothing to act on: callers that want to observe
// whether a peer actually deleted something are outside this protocol's
// contract (a DeleteResponse is purely informational).
func (d *Dispatcher) handleDeleteResponse(ch *model.Channel, msg protocol.DeleteResponse) []Cmd {
	d.log.Debugf("peer %v reported delete status %v for %v", ch.PeerId, msg.Status, msg.DocId)
	return nil
}
