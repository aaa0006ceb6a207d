package wire

import (
	"reflect"
	"testing"

	"github.com/jabolina/go-sync/internal/document"
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/protocol"
)

func roundTrip(t *testing.T, msg protocol.Message) protocol.Message {
	t.Helper()
	data, err := Encode(msg)
	if err != nil {
		t.Fatalf("encode %#v: %v", msg, err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode %#v: %v", msg, err)
	}
	return got
}

func TestRoundTripSimpleMessages(t *testing.T) {
	cases := []protocol.Message{
		protocol.EstablishRequest{Identity: model.Identity{PeerId: "peer-a", Name: "A", Kind: model.IdentityUser}},
		protocol.EstablishResponse{Identity: model.Identity{PeerId: "peer-b"}},
		protocol.DirectoryRequest{},
		protocol.DirectoryResponse{DocIds: []model.DocId{"doc-1", "doc-2"}},
		protocol.NewDoc{DocIds: []model.DocId{"doc-3"}},
		protocol.DeleteRequest{DocId: "doc-1"},
		protocol.DeleteResponse{DocId: "doc-1", Status: protocol.DeleteIgnored},
		protocol.Ephemeral{DocId: "doc-1", HopsRemaining: 3, Stores: []protocol.EphemeralStoreFrame{{PeerId: "peer-a", Namespace: "cursor", Data: []byte("xy")}}},
	}
	for _, msg := range cases {
		got := roundTrip(t, msg)
		if !reflect.DeepEqual(got, msg) {
			t.Fatalf("round trip mismatch: got %#v, want %#v", got, msg)
		}
	}
}

func TestRoundTripSyncRequestWithVersion(t *testing.T) {
	req := protocol.SyncRequest{Docs: []protocol.SyncDocRequest{
		{DocId: "doc-1", RequesterVersion: document.VersionVector{"r1": 3}},
		{DocId: "doc-2"},
	}}
	got := roundTrip(t, req).(protocol.SyncRequest)
	if len(got.Docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(got.Docs))
	}
	if got.Docs[0].DocId != "doc-1" {
		t.Fatalf("expected doc-1 first, got %v", got.Docs[0].DocId)
	}
	v, ok := got.Docs[0].RequesterVersion.(document.VersionVector)
	if !ok || v["r1"] != 3 {
		t.Fatalf("expected requester version r1=3, got %#v", got.Docs[0].RequesterVersion)
	}
	if got.Docs[1].RequesterVersion != nil {
		t.Fatalf("expected a nil version for an empty requester version, got %#v", got.Docs[1].RequesterVersion)
	}
}

func TestRoundTripSyncResponseSnapshot(t *testing.T) {
	resp := protocol.SyncResponse{
		DocId: "doc-1",
		Transmission: protocol.SnapshotTransmission{
			Data:    []byte(`[{"replica":"r1","seq":1,"text":"hi"}]`),
			Version: document.VersionVector{"r1": 1},
		},
	}
	got := roundTrip(t, resp).(protocol.SyncResponse)
	snap, ok := got.Transmission.(protocol.SnapshotTransmission)
	if !ok {
		t.Fatalf("expected a SnapshotTransmission, got %#v", got.Transmission)
	}
	if string(snap.Data) != string(resp.Transmission.(protocol.SnapshotTransmission).Data) {
		t.Fatalf("data mismatch: got %s", snap.Data)
	}
	v := snap.Version.(document.VersionVector)
	if v["r1"] != 1 {
		t.Fatalf("expected version r1=1, got %#v", v)
	}
}

func TestRoundTripSyncResponseUpToDateAndNotFound(t *testing.T) {
	upToDate := roundTrip(t, protocol.SyncResponse{DocId: "doc-1", Transmission: protocol.UpToDate{}}).(protocol.SyncResponse)
	if upToDate.Transmission.Kind() != protocol.TransmissionUpToDate {
		t.Fatalf("expected up-to-date, got %v", upToDate.Transmission.Kind())
	}

	notFound := roundTrip(t, protocol.SyncResponse{DocId: "doc-1", Transmission: protocol.NotFoundTransmission{}}).(protocol.SyncResponse)
	if notFound.Transmission.Kind() != protocol.TransmissionNotFound {
		t.Fatalf("expected not-found, got %v", notFound.Transmission.Kind())
	}
}

func TestRoundTripUpdateMessage(t *testing.T) {
	msg := protocol.UpdateMessage{
		DocId:        "doc-1",
		Transmission: protocol.UpdateTransmission{Data: []byte("delta"), Version: document.VersionVector{"r1": 5}},
	}
	got := roundTrip(t, msg).(protocol.UpdateMessage)
	upd, ok := got.Transmission.(protocol.UpdateTransmission)
	if !ok || string(upd.Data) != "delta" {
		t.Fatalf("expected update transmission with data %q, got %#v", "delta", got.Transmission)
	}
}

func TestRoundTripBatch(t *testing.T) {
	batch := protocol.Batch{Messages: []protocol.Message{
		protocol.DirectoryRequest{},
		protocol.NewDoc{DocIds: []model.DocId{"doc-1"}},
		protocol.Ephemeral{DocId: "doc-1", HopsRemaining: 1},
	}}
	got := roundTrip(t, batch).(protocol.Batch)
	if len(got.Messages) != 3 {
		t.Fatalf("expected 3 members, got %d", len(got.Messages))
	}
	if _, ok := got.Messages[0].(protocol.DirectoryRequest); !ok {
		t.Fatalf("expected first member to be a DirectoryRequest, got %#v", got.Messages[0])
	}
	nd, ok := got.Messages[1].(protocol.NewDoc)
	if !ok || len(nd.DocIds) != 1 || nd.DocIds[0] != "doc-1" {
		t.Fatalf("expected second member to be NewDoc{doc-1}, got %#v", got.Messages[1])
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	data, err := Encode(protocol.DirectoryRequest{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(append(data, 0xFF)); err == nil {
		t.Fatalf("expected an error for trailing bytes")
	}
}

func TestDecodeRejectsShortHeader(t *testing.T) {
	if _, err := Decode([]byte{0x20, 0x00}); err == nil {
		t.Fatalf("expected an error for a frame shorter than the header")
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	data, err := Encode(protocol.DirectoryRequest{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	corrupted := append([]byte{}, data...)
	corrupted[0] = 0xEE
	if _, err := Decode(corrupted); err == nil {
		t.Fatalf("expected an error for an unknown type discriminant")
	}
}
