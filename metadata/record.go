// Package metadata is the durable per-object record store (C2): one
// record per live transformation object, keyed by (namespace, name),
// carrying the transformation kind/mode, original/transformed size, and,
// for chunked objects, chunk geometry.
package metadata

import (
	"github.com/tinylib/msgp/msgp"

	"github.com/julea-project/julea-go/jerrors"
	"github.com/julea-project/julea-go/transform"
)

// recordVersion guards the wire shape of Record, in case a future schema
// needs to distinguish old records from new ones. Schema evolution itself
// is out of scope; this is just the version tag spec.md's packed record
// would need for one.
const recordVersion uint8 = 1

// Record is the durable per-object metadata record described in spec.md
// section 3. ChunkCount/ChunkSize are only meaningful for chunked objects
// (IsChunked true); for flat objects they are zero.
type Record struct {
	Kind            transform.Kind
	Mode            transform.Mode
	OriginalSize    uint64
	TransformedSize uint64
	IsChunked       bool
	ChunkCount      uint64
	ChunkSize       uint64
}

// Marshal encodes a Record as a compact self-describing binary blob using
// github.com/tinylib/msgp/msgp's low-level Append* primitives directly
// (no code generation - the record is simple enough to hand-encode
// against the same wire format msgp-generated code would produce). This
// stands in for the BSON-compatible record spec.md section 6 describes;
// no BSON codec exists anywhere in the example corpus, and msgp is the
// nearest available self-describing binary format that is a genuine
// corpus dependency (see DESIGN.md).
func (r Record) Marshal() []byte {
	b := msgp.AppendMapHeader(nil, 7)
	b = msgp.AppendString(b, "v")
	b = msgp.AppendUint8(b, recordVersion)
	b = msgp.AppendString(b, "kind")
	b = msgp.AppendInt32(b, int32(r.Kind))
	b = msgp.AppendString(b, "mode")
	b = msgp.AppendInt32(b, int32(r.Mode))
	b = msgp.AppendString(b, "original_size")
	b = msgp.AppendUint64(b, r.OriginalSize)
	b = msgp.AppendString(b, "transformed_size")
	b = msgp.AppendUint64(b, r.TransformedSize)
	b = msgp.AppendString(b, "chunk_count")
	b = msgp.AppendUint64(b, r.ChunkCount)
	b = msgp.AppendString(b, "chunk_size")
	b = msgp.AppendUint64(b, r.ChunkSize)
	return b
}

// Unmarshal decodes a Record produced by Marshal.
func Unmarshal(data []byte) (Record, error) {
	var r Record
	sz, rest, err := msgp.ReadMapHeaderBytes(data)
	if err != nil {
		return r, jerrors.New(jerrors.KindCodec, "Unmarshal", err)
	}
	for i := uint32(0); i < sz; i++ {
		var field string
		field, rest, err = msgp.ReadStringBytes(rest)
		if err != nil {
			return r, jerrors.New(jerrors.KindCodec, "Unmarshal", err)
		}
		switch field {
		case "v":
			_, rest, err = msgp.ReadUint8Bytes(rest)
		case "kind":
			var v int32
			v, rest, err = msgp.ReadInt32Bytes(rest)
			r.Kind = transform.Kind(v)
		case "mode":
			var v int32
			v, rest, err = msgp.ReadInt32Bytes(rest)
			r.Mode = transform.Mode(v)
		case "original_size":
			r.OriginalSize, rest, err = msgp.ReadUint64Bytes(rest)
		case "transformed_size":
			r.TransformedSize, rest, err = msgp.ReadUint64Bytes(rest)
		case "chunk_count":
			r.ChunkCount, rest, err = msgp.ReadUint64Bytes(rest)
			r.IsChunked = r.IsChunked || r.ChunkCount > 0
		case "chunk_size":
			r.ChunkSize, rest, err = msgp.ReadUint64Bytes(rest)
			r.IsChunked = r.IsChunked || r.ChunkSize > 0
		default:
			_, rest, err = msgp.Skip(rest)
		}
		if err != nil {
			return r, jerrors.New(jerrors.KindCodec, "Unmarshal", err)
		}
	}
	return r, nil
}
