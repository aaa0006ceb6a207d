package runtime

import (
	"testing"

	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/protocol"
)

func TestOutboundBatcherFlushEmpty(t *testing.T) {
	b := NewOutboundBatcher()
	if envs := b.Flush(); envs != nil {
		t.Fatalf("expected no envelopes from an empty batcher, got %+v", envs)
	}
}

func TestOutboundBatcherSingleMessageIsBare(t *testing.T) {
	b := NewOutboundBatcher()
	b.Enqueue([]model.ChannelId{1}, protocol.DirectoryRequest{})

	envs := b.Flush()
	if len(envs) != 1 {
		t.Fatalf("expected exactly one envelope, got %d", len(envs))
	}
	if _, ok := envs[0].Message.(protocol.DirectoryRequest); !ok {
		t.Fatalf("expected a bare DirectoryRequest, got %#v", envs[0].Message)
	}
}

func TestOutboundBatcherMultipleMessagesAreWrapped(t *testing.T) {
	b := NewOutboundBatcher()
	b.Enqueue([]model.ChannelId{1}, protocol.DirectoryRequest{})
	b.Enqueue([]model.ChannelId{1}, protocol.NewDoc{DocIds: []model.DocId{"doc-1"}})

	envs := b.Flush()
	if len(envs) != 1 {
		t.Fatalf("expected exactly one envelope for one channel, got %d", len(envs))
	}
	batch, ok := envs[0].Message.(protocol.Batch)
	if !ok {
		t.Fatalf("expected a Batch for two buffered messages, got %#v", envs[0].Message)
	}
	if len(batch.Messages) != 2 {
		t.Fatalf("expected 2 messages inside the batch, got %d", len(batch.Messages))
	}
}

func TestOutboundBatcherFanOutToMultipleChannels(t *testing.T) {
	b := NewOutboundBatcher()
	b.Enqueue([]model.ChannelId{1, 2}, protocol.DirectoryRequest{})

	envs := b.Flush()
	if len(envs) != 2 {
		t.Fatalf("expected one envelope per channel, got %d", len(envs))
	}
}

func TestOutboundBatcherResetsAfterFlush(t *testing.T) {
	b := NewOutboundBatcher()
	b.Enqueue([]model.ChannelId{1}, protocol.DirectoryRequest{})
	b.Flush()

	if envs := b.Flush(); envs != nil {
		t.Fatalf("expected the batcher to be empty after a flush, got %+v", envs)
	}
}
