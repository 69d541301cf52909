package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blobV1 struct {
	Version uint32   `cbor:"version"`
	Paths   [][]byte `cbor:"paths"`
}

type blobV2 struct {
	Version uint32   `cbor:"version"`
	Paths   [][]byte `cbor:"paths"`
	Note    string   `cbor:"note"`
}

func TestMarshal_Deterministic(t *testing.T) {
	in := map[string]int{"b": 2, "a": 1, "c": 3}

	first, err := Marshal(in)
	require.NoError(t, err)
	second, err := Marshal(in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestUnmarshal_IgnoresUnknownFields(t *testing.T) {
	data, err := Marshal(blobV2{Version: 2, Paths: [][]byte{{0x01, 0x02}}, Note: "newer writer"})
	require.NoError(t, err)

	var out blobV1
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, uint32(2), out.Version)
	assert.Equal(t, [][]byte{{0x01, 0x02}}, out.Paths)
}

func TestUnmarshal_Garbage(t *testing.T) {
	var out blobV1
	assert.Error(t, Unmarshal([]byte{0xff, 0x00, 0x13}, &out))
}

func TestCheckVersion(t *testing.T) {
	assert.NoError(t, CheckVersion("eco cores", 1, 1))
	assert.NoError(t, CheckVersion("eco cores", 0, 1))

	err := CheckVersion("eco cores", 3, 1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "eco cores")
}
