package oscwire_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/measurecast/pkg/oscwire"
)

func TestEncodeDecodeMeasure(t *testing.T) {
	in := oscwire.Message{
		Address:   "/measure",
		Arguments: []oscwire.Argument{oscwire.Int32(12), oscwire.Int32(3), oscwire.Float32(2.5)},
	}

	payload, err := oscwire.Encode(in)
	require.NoError(t, err)
	assert.Zero(t, len(payload)%4, "OSC packets are 4-byte aligned")

	out, err := oscwire.Decode(payload)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in, out[0])
}

func TestEncodeUntyped(t *testing.T) {
	payload, err := oscwire.Encode(oscwire.Message{Address: "/measure"})
	require.NoError(t, err)
	assert.Equal(t, []byte("/measure\x00\x00\x00\x00"), payload)

	out, err := oscwire.Decode(payload)
	require.NoError(t, err)
	assert.Nil(t, out[0].Arguments)
}

func TestEncodeErrors(t *testing.T) {
	_, err := oscwire.Encode(oscwire.Message{Address: "measure"})
	assert.Error(t, err)

	_, err = oscwire.Encode(oscwire.Message{
		Address:   "/measure",
		Arguments: []oscwire.Argument{{Kind: oscwire.KindTimetag}},
	})
	assert.Error(t, err)
}

func TestMessageString(t *testing.T) {
	msg := oscwire.Message{
		Address:   "/measure",
		Arguments: []oscwire.Argument{oscwire.Int32(2), oscwire.String("a"), oscwire.Nil()},
	}
	assert.Equal(t, `/measure [int32:2 string:"a" nil]`, msg.String())
	assert.Equal(t, "/measure <untyped>", oscwire.Message{Address: "/measure"}.String())
	assert.Equal(t, "kind(42)", oscwire.Kind(42).String())
}
