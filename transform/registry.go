package transform

import (
	"fmt"

	"github.com/julea-project/julea-go/jerrors"
)

// Codec is the per-kind encode/decode pair. Implementations register
// themselves from an init() function, mirroring the fs.Register extension
// point every rclone backend uses (backend/local, backend/chunker,
// backend/kvfs) to announce themselves to a central registry at process
// start.
type Codec interface {
	Encode(plain []byte) ([]byte, error)
	Decode(encoded []byte) ([]byte, error)
}

var registry = map[Kind]Codec{}

// Register installs a Codec for kind. Called from each codec file's
// init().
func Register(kind Kind, codec Codec) {
	registry[kind] = codec
}

func lookup(kind Kind) (Codec, error) {
	codec, ok := registry[kind]
	if !ok {
		return nil, jerrors.New(jerrors.KindConfig, "lookup", fmt.Errorf("no codec registered for kind %v", kind))
	}
	return codec, nil
}
