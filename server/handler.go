// Package server is the julea-go server daemon (C7): it accepts wire
// connections, dispatches Read/Write/Create/Delete/Status frames against
// local storage, applying the server-side half of the transform engine.
package server

import (
	"fmt"

	"github.com/julea-project/julea-go/jerrors"
	"github.com/julea-project/julea-go/metadata"
	"github.com/julea-project/julea-go/object"
	"github.com/julea-project/julea-go/storage"
	"github.com/julea-project/julea-go/transform"
	"github.com/julea-project/julea-go/wire"
)

// Handler dispatches wire frames against a local metadata store and
// back-end, applying ServerRead/ServerWrite direction from the same
// transform.directionTable a client uses for ClientRead/ClientWrite -
// the two halves of the same normative table from spec.md section 4.1.
type Handler struct {
	store   *metadata.Store
	backend storage.Backend
	stats   *Stats
}

// NewHandler builds a Handler over the given metadata store and back-end.
func NewHandler(store *metadata.Store, backend storage.Backend, stats *Stats) *Handler {
	return &Handler{store: store, backend: backend, stats: stats}
}

// HandleFrame dispatches one already-decoded wire frame and returns the
// reply payload to send back.
func (h *Handler) HandleFrame(hdr wire.Header, payload []byte) (wire.Header, []byte, error) {
	desc, rest, err := wire.UnmarshalDescriptor(payload)
	if err != nil {
		return wire.Header{}, nil, err
	}
	obj := object.Open(h.store, h.backend, desc.Namespace, desc.Name)

	switch hdr.Type {
	case wire.MessageCreate:
		h.stats.addCreate()
		err := obj.Create(desc.Kind, desc.Mode)
		return replyHeader(hdr), nil, err
	case wire.MessageDelete:
		h.stats.addDelete()
		err := obj.Delete()
		return replyHeader(hdr), nil, err
	case wire.MessageWrite:
		h.stats.addWrite(uint64(len(rest)))
		n, err := obj.Write(transform.ServerWrite, rest, desc.Offset)
		return replyHeader(hdr), encodeCount(n), err
	case wire.MessageRead:
		h.stats.addRead(desc.Length)
		buf := make([]byte, desc.Length)
		n, err := obj.Read(transform.ServerRead, buf, desc.Offset)
		if err != nil {
			return wire.Header{}, nil, err
		}
		return replyHeader(hdr), buf[:n], nil
	case wire.MessageStatus:
		h.stats.addStatus()
		st, err := obj.Status()
		if err != nil {
			return wire.Header{}, nil, err
		}
		return replyHeader(hdr), encodeCount(st.OriginalSize), nil
	default:
		return wire.Header{}, nil, jerrors.New(jerrors.KindWire, "HandleFrame", fmt.Errorf("unknown message type %d", hdr.Type))
	}
}

func replyHeader(req wire.Header) wire.Header {
	return wire.Header{Type: wire.MessageReply, OpCount: req.OpCount, Flags: req.Flags}
}

func encodeCount(n uint64) []byte {
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[7-i] = byte(n)
		n >>= 8
	}
	return buf
}
