package runtime

import (
	"github.com/jabolina/go-sync/adapter"
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/protocol"
)

// OutboundBatcher accumulates per-channel message queues within one
// dispatch turn and flushes them as a single wire frame each: a lone
// message goes out bare, two or more are wrapped in a protocol.Batch (spec
// §4.7). It is reset on every Flush so a re-entrant enqueue from inside a
// Cmd's execution buffers into a fresh queue rather than leaking into the
// next turn's.
type OutboundBatcher struct {
	queues map[model.ChannelId][]protocol.Message
}

// NewOutboundBatcher creates an empty batcher.
func NewOutboundBatcher() *OutboundBatcher {
	return &OutboundBatcher{queues: make(map[model.ChannelId][]protocol.Message)}
}

// Enqueue buffers message for delivery to every channel id in toChannelIds.
func (b *OutboundBatcher) Enqueue(toChannelIds []model.ChannelId, message protocol.Message) {
	for _, id := range toChannelIds {
		b.queues[id] = append(b.queues[id], message)
	}
}

// Flush returns one envelope per non-empty channel queue — bare for a
// single buffered message, wrapped in a Batch for two or more — and resets
// the batcher for the next turn.
func (b *OutboundBatcher) Flush() []adapter.Envelope {
	if len(b.queues) == 0 {
		return nil
	}
	envelopes := make([]adapter.Envelope, 0, len(b.queues))
	for id, messages := range b.queues {
		var message protocol.Message
		if len(messages) == 1 {
			message = messages[0]
		} else {
			message = protocol.Batch{Messages: messages}
		}
		envelopes = append(envelopes, adapter.Envelope{ToChannelIds: []model.ChannelId{id}, Message: message})
	}
	b.queues = make(map[model.ChannelId][]protocol.Message)
	return envelopes
}
