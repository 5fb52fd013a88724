// Package jerrors defines the error taxonomy shared by every julea-go
// component: back-end, wire and codec failures are all classified against
// one of the sentinel kinds below so that batch executors can decide
// whether a partition's failure is fatal to the connection, fatal to the
// operation, or just a short read/write.
package jerrors

import (
	"github.com/pkg/errors"
)

// Kind classifies an error for propagation purposes.
type Kind int

const (
	// KindNotFound is returned when an object or metadata record is absent.
	KindNotFound Kind = iota
	// KindExists is returned by a create against a live object.
	KindExists
	// KindIoShort indicates the back-end returned fewer bytes than requested.
	KindIoShort
	// KindCodec indicates a decode failure (corrupt stream, bad length).
	KindCodec
	// KindWire indicates a framing or parse error on a wire message.
	KindWire
	// KindBackend indicates a local driver reported failure.
	KindBackend
	// KindConfig indicates missing or malformed configuration.
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindExists:
		return "exists"
	case KindIoShort:
		return "short io"
	case KindCodec:
		return "codec error"
	case KindWire:
		return "wire error"
	case KindBackend:
		return "backend error"
	case KindConfig:
		return "config error"
	default:
		return "unknown"
	}
}

// Error is a julea-go error tagged with a Kind, wrapping an underlying cause.
type Error struct {
	Kind Kind
	Op   string
	err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return e.Op + ": " + e.Kind.String() + ": " + e.err.Error()
	}
	return e.Kind.String() + ": " + e.err.Error()
}

// Unwrap lets errors.Is/errors.As see through to the wrapped cause.
func (e *Error) Unwrap() error { return e.err }

// Cause implements the github.com/pkg/errors Causer interface.
func (e *Error) Cause() error { return e.err }

// New wraps err with the given kind and operation label. If err is nil,
// New returns nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, err: errors.WithStack(err)}
}

// Is reports whether err was tagged with kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Sentinels for direct comparison where no extra context is useful.
var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
)
