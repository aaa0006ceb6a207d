// Package wire implements the binary frame format of spec §6: a
// one-byte type discriminant followed by a four-byte big-endian length
// and a JSON payload, self-contained per message so no adapter needs to
// reassemble fragments itself (fragmentation, when it matters at all, is
// the transport's concern — relt and gorilla/websocket both already
// deliver one whole message per read). Batch frames nest a member count
// followed by one such frame per member, a length-prefixed vector rather
// than a single combined payload, so a partial batch can still be parsed
// member by member.
//
// This hand-rolled TLV framing, not CBOR, is a deliberate stdlib choice:
// no CBOR library appears anywhere in the retrieval pack this repo was
// built from, and the teacher's own transport.go reaches for
// encoding/json over its wire the same way (see pkg/mcast/core/transport.go's
// apply/consume pair).
package wire

import (
	"encoding/binary"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/jabolina/go-sync/internal/document"
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/protocol"
)

const frameHeaderSize = 5 // 1 byte type + 4 byte length

// Encode serializes msg into a self-contained binary frame.
func Encode(msg protocol.Message) ([]byte, error) {
	if batch, ok := msg.(protocol.Batch); ok {
		return encodeBatch(batch)
	}
	return encodeFrame(msg)
}

func encodeFrame(msg protocol.Message) ([]byte, error) {
	payload, err := json.Marshal(toDTO(msg))
	if err != nil {
		return nil, errors.Wrapf(err, "wire: encoding %v", msg.Type())
	}
	buf := make([]byte, frameHeaderSize+len(payload))
	buf[0] = byte(msg.Type())
	binary.BigEndian.PutUint32(buf[1:frameHeaderSize], uint32(len(payload)))
	copy(buf[frameHeaderSize:], payload)
	return buf, nil
}

func encodeBatch(batch protocol.Batch) ([]byte, error) {
	out := make([]byte, frameHeaderSize)
	out[0] = byte(protocol.TypeBatch)
	binary.BigEndian.PutUint32(out[1:frameHeaderSize], uint32(len(batch.Messages)))
	for _, inner := range batch.Messages {
		frame, err := Encode(inner)
		if err != nil {
			return nil, err
		}
		out = append(out, frame...)
	}
	return out, nil
}

// Decode parses one self-contained frame (possibly a batch) from data.
// Trailing bytes beyond the frame are an error: adapters are expected to
// hand Decode exactly one transport-delimited message.
func Decode(data []byte) (protocol.Message, error) {
	msg, n, err := decodeOne(data)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, errors.Errorf("wire: %d trailing bytes after frame", len(data)-n)
	}
	return msg, nil
}

func decodeOne(data []byte) (protocol.Message, int, error) {
	if len(data) < frameHeaderSize {
		return nil, 0, errors.New("wire: frame shorter than header")
	}
	typ := protocol.Type(data[0])
	if typ == protocol.TypeBatch {
		count := binary.BigEndian.Uint32(data[1:frameHeaderSize])
		offset := frameHeaderSize
		messages := make([]protocol.Message, 0, count)
		for i := uint32(0); i < count; i++ {
			if offset >= len(data) {
				return nil, 0, errors.New("wire: truncated batch")
			}
			msg, n, err := decodeOne(data[offset:])
			if err != nil {
				return nil, 0, err
			}
			messages = append(messages, msg)
			offset += n
		}
		return protocol.Batch{Messages: messages}, offset, nil
	}

	length := binary.BigEndian.Uint32(data[1:frameHeaderSize])
	end := frameHeaderSize + int(length)
	if end > len(data) {
		return nil, 0, errors.New("wire: truncated frame payload")
	}
	msg, err := decodePayload(typ, data[frameHeaderSize:end])
	if err != nil {
		return nil, 0, err
	}
	return msg, end, nil
}

// toDTO converts a protocol.Message into the shape json.Marshal can
// faithfully round-trip. Most variants have no interface-typed fields and
// pass through unchanged; sync messages carry model.VersionVector /
// protocol.Transmission interfaces that need an explicit DTO.
func toDTO(msg protocol.Message) interface{} {
	switch m := msg.(type) {
	case protocol.SyncRequest:
		docs := make([]syncDocRequestDTO, len(m.Docs))
		for i, d := range m.Docs {
			docs[i] = syncDocRequestDTO{DocId: d.DocId, RequesterVersion: asDocVersion(d.RequesterVersion)}
		}
		return syncRequestDTO{Docs: docs}
	case protocol.SyncResponse:
		return syncResponseDTO{DocId: m.DocId, Transmission: toTransmissionDTO(m.Transmission)}
	case protocol.UpdateMessage:
		return updateMessageDTO{DocId: m.DocId, Transmission: toTransmissionDTO(m.Transmission)}
	default:
		return msg
	}
}

func decodePayload(typ protocol.Type, payload []byte) (protocol.Message, error) {
	switch typ {
	case protocol.TypeEstablishRequest:
		var m protocol.EstablishRequest
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, errors.Wrap(err, "wire: decoding establish-request")
		}
		return m, nil

	case protocol.TypeEstablishResponse:
		var m protocol.EstablishResponse
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, errors.Wrap(err, "wire: decoding establish-response")
		}
		return m, nil

	case protocol.TypeDirectoryRequest:
		return protocol.DirectoryRequest{}, nil

	case protocol.TypeDirectoryResponse:
		var m protocol.DirectoryResponse
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, errors.Wrap(err, "wire: decoding directory-response")
		}
		return m, nil

	case protocol.TypeNewDoc:
		var m protocol.NewDoc
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, errors.Wrap(err, "wire: decoding new-doc")
		}
		return m, nil

	case protocol.TypeSyncRequest:
		var dto syncRequestDTO
		if err := json.Unmarshal(payload, &dto); err != nil {
			return nil, errors.Wrap(err, "wire: decoding sync-request")
		}
		docs := make([]protocol.SyncDocRequest, len(dto.Docs))
		for i, d := range dto.Docs {
			docs[i] = protocol.SyncDocRequest{DocId: d.DocId, RequesterVersion: versionOrNil(d.RequesterVersion)}
		}
		return protocol.SyncRequest{Docs: docs}, nil

	case protocol.TypeSyncResponse:
		var dto syncResponseDTO
		if err := json.Unmarshal(payload, &dto); err != nil {
			return nil, errors.Wrap(err, "wire: decoding sync-response")
		}
		return protocol.SyncResponse{DocId: dto.DocId, Transmission: fromTransmissionDTO(dto.Transmission)}, nil

	case protocol.TypeUpdate:
		var dto updateMessageDTO
		if err := json.Unmarshal(payload, &dto); err != nil {
			return nil, errors.Wrap(err, "wire: decoding update")
		}
		return protocol.UpdateMessage{DocId: dto.DocId, Transmission: fromTransmissionDTO(dto.Transmission)}, nil

	case protocol.TypeDeleteRequest:
		var m protocol.DeleteRequest
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, errors.Wrap(err, "wire: decoding delete-request")
		}
		return m, nil

	case protocol.TypeDeleteResponse:
		var m protocol.DeleteResponse
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, errors.Wrap(err, "wire: decoding delete-response")
		}
		return m, nil

	case protocol.TypeEphemeral:
		var m protocol.Ephemeral
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, errors.Wrap(err, "wire: decoding ephemeral")
		}
		return m, nil

	default:
		return nil, errors.Errorf("wire: unknown type discriminant 0x%02x", byte(typ))
	}
}

type syncDocRequestDTO struct {
	DocId            model.DocId             `json:"doc_id"`
	RequesterVersion document.VersionVector `json:"requester_version,omitempty"`
}

type syncRequestDTO struct {
	Docs []syncDocRequestDTO `json:"docs"`
}

type transmissionDTO struct {
	Kind    protocol.TransmissionKind `json:"kind"`
	Data    []byte                    `json:"data,omitempty"`
	Version document.VersionVector    `json:"version,omitempty"`
}

type syncResponseDTO struct {
	DocId        model.DocId     `json:"doc_id"`
	Transmission transmissionDTO `json:"transmission"`
}

type updateMessageDTO struct {
	DocId        model.DocId     `json:"doc_id"`
	Transmission transmissionDTO `json:"transmission"`
}

func asDocVersion(v model.VersionVector) document.VersionVector {
	if v == nil {
		return nil
	}
	if dv, ok := v.(document.VersionVector); ok {
		return dv
	}
	return nil
}

func versionOrNil(v document.VersionVector) model.VersionVector {
	if v == nil {
		return nil
	}
	return v
}

func toTransmissionDTO(t protocol.Transmission) transmissionDTO {
	switch v := t.(type) {
	case protocol.SnapshotTransmission:
		return transmissionDTO{Kind: protocol.TransmissionSnapshot, Data: v.Data, Version: asDocVersion(v.Version)}
	case protocol.UpdateTransmission:
		return transmissionDTO{Kind: protocol.TransmissionUpdate, Data: v.Data, Version: asDocVersion(v.Version)}
	case protocol.NotFoundTransmission:
		return transmissionDTO{Kind: protocol.TransmissionNotFound}
	default:
		return transmissionDTO{Kind: protocol.TransmissionUpToDate}
	}
}

func fromTransmissionDTO(d transmissionDTO) protocol.Transmission {
	switch d.Kind {
	case protocol.TransmissionNotFound:
		return protocol.NotFoundTransmission{}
	case protocol.TransmissionSnapshot:
		return protocol.SnapshotTransmission{Data: d.Data, Version: versionOrNil(d.Version)}
	case protocol.TransmissionUpdate:
		return protocol.UpdateTransmission{Data: d.Data, Version: versionOrNil(d.Version)}
	default:
		return protocol.UpToDate{}
	}
}
