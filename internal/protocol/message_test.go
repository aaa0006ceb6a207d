package protocol

import "testing"

func TestTypeString(t *testing.T) {
	cases := map[Type]string{
		TypeEstablishRequest:  "establish-request",
		TypeEstablishResponse: "establish-response",
		TypeBatch:             "batch",
		TypeDirectoryRequest:  "directory-request",
		TypeDirectoryResponse: "directory-response",
		TypeNewDoc:            "new-doc",
		TypeSyncRequest:       "sync-request",
		TypeSyncResponse:      "sync-response",
		TypeUpdate:            "update",
		TypeDeleteRequest:     "delete-request",
		TypeDeleteResponse:    "delete-response",
		TypeEphemeral:         "ephemeral",
		Type(0xFF):            "unknown",
	}
	for typ, want := range cases {
		if got := typ.String(); got != want {
			t.Fatalf("type %#x: got %q, want %q", byte(typ), got, want)
		}
	}
}

func TestMessageTypeTags(t *testing.T) {
	cases := []struct {
		msg  Message
		want Type
	}{
		{EstablishRequest{}, TypeEstablishRequest},
		{EstablishResponse{}, TypeEstablishResponse},
		{Batch{}, TypeBatch},
		{DirectoryRequest{}, TypeDirectoryRequest},
		{DirectoryResponse{}, TypeDirectoryResponse},
		{NewDoc{}, TypeNewDoc},
		{SyncRequest{}, TypeSyncRequest},
		{SyncResponse{}, TypeSyncResponse},
		{UpdateMessage{}, TypeUpdate},
		{DeleteRequest{}, TypeDeleteRequest},
		{DeleteResponse{}, TypeDeleteResponse},
		{Ephemeral{}, TypeEphemeral},
	}
	for _, c := range cases {
		if got := c.msg.Type(); got != c.want {
			t.Fatalf("%T.Type(): got %v, want %v", c.msg, got, c.want)
		}
	}
}

func TestTransmissionKindTags(t *testing.T) {
	cases := []struct {
		tr   Transmission
		want TransmissionKind
	}{
		{UpToDate{}, TransmissionUpToDate},
		{NotFoundTransmission{}, TransmissionNotFound},
		{SnapshotTransmission{}, TransmissionSnapshot},
		{UpdateTransmission{}, TransmissionUpdate},
	}
	for _, c := range cases {
		if got := c.tr.Kind(); got != c.want {
			t.Fatalf("%T.Kind(): got %v, want %v", c.tr, got, c.want)
		}
	}
}
