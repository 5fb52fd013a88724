package transform

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v3"
)

// lz4Codec implements the Lz4 transformation using the LZ4 frame format
// (lz4.NewWriter/lz4.NewReader), not the raw block format: a genuinely
// size-changing, non-partial-accessible codec.
type lz4Codec struct{}

func (lz4Codec) Encode(plain []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(plain); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (lz4Codec) Decode(encoded []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(encoded))
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func init() {
	Register(Lz4, lz4Codec{})
}
