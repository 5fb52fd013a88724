package transform

// xorCodec implements the Xor transformation: the one's-complement of
// every byte. Decode is the same operation as Encode.
type xorCodec struct{}

func (xorCodec) Encode(plain []byte) ([]byte, error) {
	out := make([]byte, len(plain))
	for i, b := range plain {
		out[i] = ^b
	}
	return out, nil
}

func (c xorCodec) Decode(encoded []byte) ([]byte, error) {
	return c.Encode(encoded)
}

func init() {
	Register(Xor, xorCodec{})
}
