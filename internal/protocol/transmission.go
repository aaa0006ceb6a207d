package protocol

import "github.com/jabolina/go-sync/internal/model"

// TransmissionKind discriminates the four shapes a sync reply can take
// (spec §4.2).
type TransmissionKind int

const (
	TransmissionUpToDate TransmissionKind = iota
	TransmissionNotFound
	TransmissionSnapshot
	TransmissionUpdate
)

// Transmission is the payload of a sync-response/update message.
type Transmission interface {
	Kind() TransmissionKind
}

// UpToDate means the sender has no new data for the requester.
type UpToDate struct{}

func (UpToDate) Kind() TransmissionKind { return TransmissionUpToDate }

// NotFoundTransmission means the sender does not have the document.
type NotFoundTransmission struct{}

func (NotFoundTransmission) Kind() TransmissionKind { return TransmissionNotFound }

// SnapshotTransmission carries the full document state.
type SnapshotTransmission struct {
	Data    []byte
	Version model.VersionVector
}

func (SnapshotTransmission) Kind() TransmissionKind { return TransmissionSnapshot }

// UpdateTransmission carries an incremental update since some version.
type UpdateTransmission struct {
	Data    []byte
	Version model.VersionVector
}

func (UpdateTransmission) Kind() TransmissionKind { return TransmissionUpdate }
