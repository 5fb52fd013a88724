// Package transform implements the pluggable, stateful transformation
// engine applied to object bytes on their way to, or from, a storage
// back-end: per-kind encode/decode, classified as size-preserving and/or
// partial-accessible, dispatched by the caller x mode direction table.
package transform

import (
	"fmt"

	"github.com/julea-project/julea-go/jerrors"
)

// Kind is the tagged variant of transformations this engine knows how to
// apply. The zero value, None, is the identity transformation.
type Kind int32

const (
	None Kind = iota
	Xor
	Rle
	Lz4
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Xor:
		return "xor"
	case Rle:
		return "rle"
	case Lz4:
		return "lz4"
	default:
		return fmt.Sprintf("Kind(%d)", int32(k))
	}
}

// ParseKind turns a configuration string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "none":
		return None, nil
	case "xor":
		return Xor, nil
	case "rle":
		return Rle, nil
	case "lz4":
		return Lz4, nil
	default:
		return None, jerrors.New(jerrors.KindConfig, "ParseKind", fmt.Errorf("unknown transformation kind %q", s))
	}
}

// Mode governs where codec work happens: at the client, split across the
// wire (client encodes, server decodes, and vice versa), or entirely at
// the server.
type Mode int32

const (
	Client Mode = iota
	Transport
	Server
)

func (m Mode) String() string {
	switch m {
	case Client:
		return "client"
	case Transport:
		return "transport"
	case Server:
		return "server"
	default:
		return fmt.Sprintf("Mode(%d)", int32(m))
	}
}

// ParseMode turns a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "client":
		return Client, nil
	case "transport":
		return Transport, nil
	case "server":
		return Server, nil
	default:
		return Client, jerrors.New(jerrors.KindConfig, "ParseMode", fmt.Errorf("unknown transformation mode %q", s))
	}
}

// Caller identifies which of the four call sites in the direction table is
// invoking the engine.
type Caller int32

const (
	ClientRead Caller = iota
	ClientWrite
	ServerRead
	ServerWrite
)

// Direction is what the engine must do for a given (caller, mode) pair.
type Direction int

const (
	Skip Direction = iota
	Encode
	Decode
)

// directionTable is the normative caller x mode -> {skip, encode, decode}
// table from spec.md 4.1. It must be followed exactly.
var directionTable = [4][3]Direction{
	ClientWrite: {Client: Encode, Transport: Encode, Server: Skip},
	ClientRead:  {Client: Decode, Transport: Decode, Server: Skip},
	ServerWrite: {Client: Skip, Transport: Decode, Server: Encode},
	ServerRead:  {Client: Skip, Transport: Encode, Server: Decode},
}

func direction(caller Caller, mode Mode) Direction {
	return directionTable[caller][mode]
}

// properties holds the two static properties of a Kind.
type properties struct {
	sizePreserving    bool
	partialAccessible bool
}

var kindProperties = map[Kind]properties{
	None: {sizePreserving: true, partialAccessible: true},
	Xor:  {sizePreserving: true, partialAccessible: true},
	Rle:  {sizePreserving: false, partialAccessible: false},
	Lz4:  {sizePreserving: false, partialAccessible: false},
}

// SizePreserving reports whether k's encoded length always equals its
// original length.
func (k Kind) SizePreserving() bool {
	return kindProperties[k].sizePreserving
}

// PartialAccessible reports whether any byte range of the original data
// under k can be read or written without possessing the surrounding bytes.
func (k Kind) PartialAccessible() bool {
	return kindProperties[k].partialAccessible
}

// Transformation is the immutable (kind, mode) pair plus its derived
// flags. It is small enough to copy by value; per DESIGN.md's resolution
// of the reference-counting open question, there is nothing here worth
// reference-counting.
type Transformation struct {
	Kind Kind
	Mode Mode
}

// New constructs a Transformation. It never fails - both Kind and Mode
// are closed enumerations validated by ParseKind/ParseMode at the
// configuration boundary.
func New(kind Kind, mode Mode) Transformation {
	return Transformation{Kind: kind, Mode: mode}
}

// NeedWholeObject reports whether caller must operate on the whole
// object rather than a byte range: true iff the kind is not
// partial-accessible and caller is a data-bearing operation (i.e. not a
// status call, which never reaches this function).
func (t Transformation) NeedWholeObject(caller Caller) bool {
	return !t.Kind.PartialAccessible()
}

// Apply runs the engine for the given caller, producing (out, outLength,
// outOffset). Size-changing codecs always return outOffset == 0 and a
// freshly allocated buffer; size-preserving codecs return their output
// at the original offset, and Skip directions return data unmodified at
// the original offset. The caller must release the returned buffer via
// Cleanup once done with it.
func (t Transformation) Apply(caller Caller, data []byte, length, offset uint64) (out []byte, outLength, outOffset uint64, err error) {
	dir := direction(caller, t.Mode)
	if dir == Skip {
		return data, length, offset, nil
	}
	codec, err := lookup(t.Kind)
	if err != nil {
		return nil, 0, 0, err
	}
	switch dir {
	case Encode:
		out, err = codec.Encode(data[:length])
	case Decode:
		out, err = codec.Decode(data[:length])
	}
	if err != nil {
		return nil, 0, 0, jerrors.New(jerrors.KindCodec, "Apply", err)
	}
	if t.Kind.SizePreserving() {
		return out, uint64(len(out)), offset, nil
	}
	return out, uint64(len(out)), 0, nil
}

// Cleanup releases whatever Apply allocated. It does nothing for any
// kind, so it is safe to call on a buffer that aliases the caller's own
// data (None, or a Skip direction) as well as on a fresh one.
func (t Transformation) Cleanup(buf []byte, caller Caller) {
	// Go's garbage collector reclaims transform output buffers; Cleanup
	// exists to keep the call-site symmetry the spec requires (every
	// Apply is paired with exactly one Cleanup) and as the hook a future
	// pooled-buffer implementation would release through.
}
