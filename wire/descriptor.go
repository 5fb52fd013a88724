package wire

import (
	"github.com/tinylib/msgp/msgp"

	"github.com/julea-project/julea-go/jerrors"
	"github.com/julea-project/julea-go/transform"
)

// TransformDescriptor travels alongside every Read/Write/Create frame so
// the receiving side knows exactly which codec and mode produced the
// bytes in the payload. julea-go always sends the object's true
// (Kind, Mode) here - it never substitutes a fake (Client, None)
// shortcut the way JULEA's C implementation does for transport-mode
// reads, since that shortcut is explicitly called out as a bug in
// the server-side dispatch this type feeds.
type TransformDescriptor struct {
	Namespace string
	Name      string
	Kind      transform.Kind
	Mode      transform.Mode
	Offset    uint64
	Length    uint64
}

// Marshal encodes d using the same msgp Append* primitives metadata.Record
// uses, so both the metadata store and the wire protocol share one
// encoding discipline.
func (d TransformDescriptor) Marshal() []byte {
	b := msgp.AppendMapHeader(nil, 6)
	b = msgp.AppendString(b, "ns")
	b = msgp.AppendString(b, d.Namespace)
	b = msgp.AppendString(b, "name")
	b = msgp.AppendString(b, d.Name)
	b = msgp.AppendString(b, "kind")
	b = msgp.AppendInt32(b, int32(d.Kind))
	b = msgp.AppendString(b, "mode")
	b = msgp.AppendInt32(b, int32(d.Mode))
	b = msgp.AppendString(b, "offset")
	b = msgp.AppendUint64(b, d.Offset)
	b = msgp.AppendString(b, "length")
	b = msgp.AppendUint64(b, d.Length)
	return b
}

// UnmarshalDescriptor decodes a TransformDescriptor produced by Marshal,
// returning the unconsumed tail of data so callers can pack raw object
// bytes immediately after the descriptor in the same frame payload.
func UnmarshalDescriptor(data []byte) (TransformDescriptor, []byte, error) {
	var d TransformDescriptor
	sz, rest, err := msgp.ReadMapHeaderBytes(data)
	if err != nil {
		return d, nil, jerrors.New(jerrors.KindWire, "UnmarshalDescriptor", err)
	}
	for i := uint32(0); i < sz; i++ {
		var field string
		field, rest, err = msgp.ReadStringBytes(rest)
		if err != nil {
			return d, nil, jerrors.New(jerrors.KindWire, "UnmarshalDescriptor", err)
		}
		switch field {
		case "ns":
			d.Namespace, rest, err = msgp.ReadStringBytes(rest)
		case "name":
			d.Name, rest, err = msgp.ReadStringBytes(rest)
		case "kind":
			var v int32
			v, rest, err = msgp.ReadInt32Bytes(rest)
			d.Kind = transform.Kind(v)
		case "mode":
			var v int32
			v, rest, err = msgp.ReadInt32Bytes(rest)
			d.Mode = transform.Mode(v)
		case "offset":
			d.Offset, rest, err = msgp.ReadUint64Bytes(rest)
		case "length":
			d.Length, rest, err = msgp.ReadUint64Bytes(rest)
		default:
			_, rest, err = msgp.Skip(rest)
		}
		if err != nil {
			return d, nil, jerrors.New(jerrors.KindWire, "UnmarshalDescriptor", err)
		}
	}
	return d, rest, nil
}
