package dispatch

import (
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/protocol"
)

// handleEphemeral applies an inbound ephemeral frame and, if hops remain,
// asks the runtime to relay it onward to every other established channel
// (spec §4.8's hop-limited relay). The dispatcher never touches ephemeral
// data itself — internal/runtime owns the actual store and performs the
// relay decrement, since applying and rebroadcasting both need to happen
// off this reducer's synchronous path.
func (d *Dispatcher) handleEphemeral(ch *model.Channel, msg protocol.Ephemeral) []Cmd {
	return []Cmd{ApplyEphemeralCmd{
		DocId:          msg.DocId,
		HopsRemaining:  msg.HopsRemaining,
		Stores:         msg.Stores,
		ExcludeChannel: ch.ChannelId,
	}}
}

// handleHeartbeatTick asks the runtime to broadcast our current ephemeral
// state for a document to every visible established channel (spec §4.8's
// periodic heartbeat, as opposed to the initial-sync-only broadcast
// triggered from handleSyncResponse).
func (d *Dispatcher) handleHeartbeatTick(m HeartbeatTick) []Cmd {
	var cmds []Cmd
	for _, ch := range d.model.EstablishedChannels() {
		if !d.rules.Visible(m.DocId, ch.PeerId) {
			continue
		}
		cmds = append(cmds, BroadcastEphemeralCmd{DocId: m.DocId, ChannelId: ch.ChannelId})
	}
	return cmds
}
