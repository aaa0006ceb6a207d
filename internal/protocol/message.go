// Package protocol defines the Synchronizer's wire vocabulary: the
// message/transmission variants of spec §4.2 and the type codes of spec §6.
// It mirrors the teacher's RPC-as-tagged-interface style (go-mcast's
// pkg/mcast.RPC / RPCHeader family, dispatched with a type switch in
// protocol.go's Unity.process), generalized from a fixed RPC pair to the
// open set of protocol messages this spec defines.
package protocol

import "github.com/jabolina/go-sync/internal/model"

// Type is the one-byte wire discriminant of spec §6.
type Type byte

const (
	TypeEstablishRequest  Type = 0x10
	TypeEstablishResponse Type = 0x11
	TypeBatch             Type = 0x1F
	TypeDirectoryRequest  Type = 0x20
	TypeDirectoryResponse Type = 0x21
	TypeNewDoc            Type = 0x22
	TypeSyncRequest       Type = 0x30
	TypeSyncResponse      Type = 0x31
	TypeUpdate            Type = 0x32
	TypeDeleteRequest     Type = 0x38
	TypeDeleteResponse    Type = 0x39
	TypeEphemeral         Type = 0x40
)

func (t Type) String() string {
	switch t {
	case TypeEstablishRequest:
		return "establish-request"
	case TypeEstablishResponse:
		return "establish-response"
	case TypeBatch:
		return "batch"
	case TypeDirectoryRequest:
		return "directory-request"
	case TypeDirectoryResponse:
		return "directory-response"
	case TypeNewDoc:
		return "new-doc"
	case TypeSyncRequest:
		return "sync-request"
	case TypeSyncResponse:
		return "sync-response"
	case TypeUpdate:
		return "update"
	case TypeDeleteRequest:
		return "delete-request"
	case TypeDeleteResponse:
		return "delete-response"
	case TypeEphemeral:
		return "ephemeral"
	default:
		return "unknown"
	}
}

// Message is the tagged union of every protocol message, matching the
// teacher's rpc.Command-as-interface idiom (type-switched in the
// dispatcher instead of carried as a struct of optional pointers).
type Message interface {
	Type() Type
}

// EstablishRequest is sent the moment a network channel is added; an
// incoming EstablishRequest is answered with an EstablishResponse.
type EstablishRequest struct {
	Identity model.Identity
}

func (EstablishRequest) Type() Type { return TypeEstablishRequest }

// EstablishResponse completes the handshake.
type EstablishResponse struct {
	Identity model.Identity
}

func (EstablishResponse) Type() Type { return TypeEstablishResponse }

// Batch wraps several messages dispatched to the same channel within one
// scheduling turn (spec §4.7).
type Batch struct {
	Messages []Message
}

func (Batch) Type() Type { return TypeBatch }

// DirectoryRequest asks a peer to list every document it makes visible to
// us.
type DirectoryRequest struct{}

func (DirectoryRequest) Type() Type { return TypeDirectoryRequest }

// DirectoryResponse answers a DirectoryRequest.
type DirectoryResponse struct {
	DocIds []model.DocId
}

func (DirectoryResponse) Type() Type { return TypeDirectoryResponse }

// NewDoc announces that docIds exist locally without asking the recipient
// to fetch them (spec §4.4's "announce, don't send").
type NewDoc struct {
	DocIds []model.DocId
}

func (NewDoc) Type() Type { return TypeNewDoc }

// SyncDocRequest is one entry of a SyncRequest: RequesterVersion is nil
// when the requester has nothing yet.
type SyncDocRequest struct {
	DocId            model.DocId
	RequesterVersion model.VersionVector
}

// SyncRequest asks for a batch of documents, each optionally carrying the
// requester's current version.
type SyncRequest struct {
	Docs []SyncDocRequest
}

func (SyncRequest) Type() Type { return TypeSyncRequest }

// SyncResponse replies to a SyncRequest; receiving one that carries a
// snapshot or update triggers the ephemeral broadcast side effect of
// spec §4.5.
type SyncResponse struct {
	DocId        model.DocId
	Transmission Transmission
}

func (SyncResponse) Type() Type { return TypeSyncResponse }

// UpdateMessage is a spontaneous post-sync update: same transmission shape
// as SyncResponse, but without the ephemeral side effect.
type UpdateMessage struct {
	DocId        model.DocId
	Transmission Transmission
}

func (UpdateMessage) Type() Type { return TypeUpdate }

// DeleteRequest is informational only (spec §9's decided open question):
// receiving one never deletes the local document.
type DeleteRequest struct {
	DocId model.DocId
}

func (DeleteRequest) Type() Type { return TypeDeleteRequest }

// DeleteStatus is the outcome reported in a DeleteResponse.
type DeleteStatus int

const (
	DeleteIgnored DeleteStatus = iota
	DeleteDeleted
)

// DeleteResponse answers a DeleteRequest.
type DeleteResponse struct {
	DocId  model.DocId
	Status DeleteStatus
}

func (DeleteResponse) Type() Type { return TypeDeleteResponse }

// EphemeralStoreFrame is one peer's namespaced ephemeral payload within an
// Ephemeral message.
type EphemeralStoreFrame struct {
	PeerId    model.PeerId
	Namespace string
	Data      []byte
}

// Ephemeral carries presence/cursor data with a hop budget controlling
// relay (spec §4.8).
type Ephemeral struct {
	DocId         model.DocId
	HopsRemaining int
	Stores        []EphemeralStoreFrame
}

func (Ephemeral) Type() Type { return TypeEphemeral }
