package transform

type noneCodec struct{}

func (noneCodec) Encode(plain []byte) ([]byte, error) { return plain, nil }
func (noneCodec) Decode(encoded []byte) ([]byte, error) { return encoded, nil }

func init() {
	Register(None, noneCodec{})
}
