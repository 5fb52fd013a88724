// Package wire is the binary framing used between a julea-go client and a
// remote server: a fixed header followed by a payload of packed metadata
// records and/or raw object bytes.
package wire

import (
	"encoding/binary"
	"io"

	"github.com/julea-project/julea-go/jerrors"
)

// MessageType identifies what a frame's payload contains.
type MessageType uint8

const (
	MessageCreate MessageType = iota + 1
	MessageDelete
	MessageRead
	MessageWrite
	MessageStatus
	MessageReply
)

// Safety mirrors batch.Safety on the wire, so a server knows how hard to
// sync before acknowledging a write.
type Safety uint8

const (
	SafetyNone Safety = iota
	SafetyNetwork
	SafetyStorage
)

const headerSize = 8

// Header is the fixed 8-byte preamble of every frame: a message type, the
// number of operations the payload packs, safety/mode flags, and the
// payload's length in bytes.
type Header struct {
	Type      MessageType
	OpCount   uint16
	Flags     uint8
	PayloadLen uint32
}

// Flags bit layout within Header.Flags.
const (
	FlagSafetyMask = 0x03 // low two bits carry the Safety level
	FlagServerMode = 0x04 // set when the descriptor's Mode is Server
)

// EncodeHeader writes h's fixed fields into an 8-byte frame preamble.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, headerSize)
	buf[0] = byte(h.Type)
	binary.BigEndian.PutUint16(buf[1:3], h.OpCount)
	buf[3] = h.Flags
	binary.BigEndian.PutUint32(buf[4:8], h.PayloadLen)
	return buf
}

// DecodeHeader parses the fixed 8-byte frame preamble.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < headerSize {
		return Header{}, jerrors.New(jerrors.KindWire, "DecodeHeader", io.ErrUnexpectedEOF)
	}
	return Header{
		Type:       MessageType(buf[0]),
		OpCount:    binary.BigEndian.Uint16(buf[1:3]),
		Flags:      buf[3],
		PayloadLen: binary.BigEndian.Uint32(buf[4:8]),
	}, nil
}

// ReadFrame reads one frame's header and payload from r.
func ReadFrame(r io.Reader) (Header, []byte, error) {
	hb := make([]byte, headerSize)
	if _, err := io.ReadFull(r, hb); err != nil {
		return Header{}, nil, jerrors.New(jerrors.KindWire, "ReadFrame", err)
	}
	h, err := DecodeHeader(hb)
	if err != nil {
		return Header{}, nil, err
	}
	payload := make([]byte, h.PayloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Header{}, nil, jerrors.New(jerrors.KindWire, "ReadFrame", err)
	}
	return h, payload, nil
}

// WriteFrame writes a frame with the given type, operation count, safety,
// transform descriptor mode, and payload.
func WriteFrame(w io.Writer, typ MessageType, opCount uint16, safety Safety, serverMode bool, payload []byte) error {
	flags := uint8(safety) & FlagSafetyMask
	if serverMode {
		flags |= FlagServerMode
	}
	h := Header{Type: typ, OpCount: opCount, Flags: flags, PayloadLen: uint32(len(payload))}
	if _, err := w.Write(EncodeHeader(h)); err != nil {
		return jerrors.New(jerrors.KindWire, "WriteFrame", err)
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return jerrors.New(jerrors.KindWire, "WriteFrame", err)
		}
	}
	return nil
}

// SafetyOf extracts the Safety level packed into a Header's Flags.
func (h Header) SafetyOf() Safety {
	return Safety(h.Flags & FlagSafetyMask)
}

// ServerModeOf reports whether FlagServerMode is set in h's Flags.
func (h Header) ServerModeOf() bool {
	return h.Flags&FlagServerMode != 0
}
