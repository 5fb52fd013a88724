package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julea-project/julea-go/transform"
)

func TestTransformDescriptorRoundTrip(t *testing.T) {
	d := TransformDescriptor{
		Namespace: "objects",
		Name:      "foo",
		Kind:      transform.Lz4,
		Mode:      transform.Server,
		Offset:    128,
		Length:    4096,
	}
	got, rest, err := UnmarshalDescriptor(d.Marshal())
	require.NoError(t, err)
	assert.Equal(t, d, got)
	assert.Empty(t, rest)
}

func TestTransformDescriptorWithTrailingPayload(t *testing.T) {
	d := TransformDescriptor{Namespace: "objects", Name: "foo", Kind: transform.None, Mode: transform.Client}
	data := append(d.Marshal(), []byte("raw-object-bytes")...)

	got, rest, err := UnmarshalDescriptor(data)
	require.NoError(t, err)
	assert.Equal(t, d, got)
	assert.Equal(t, "raw-object-bytes", string(rest))
}
