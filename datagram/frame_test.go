package datagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func Test_FillFrame_UnframesToNil(t *testing.T) {
	payload, err := Unframe(FillFrame())
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func Test_Unframe_RejectsMissingTerminator(t *testing.T) {
	_, err := Unframe([]byte{0x01, 0x02})
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

func Test_Unframe_RejectsCorruptedChecksum(t *testing.T) {
	frame := Frame([]byte("hello"))
	frame[1] ^= 0xFF // flip a data byte inside the COBS-encoded payload
	_, err := Unframe(frame)
	assert.Error(t, err)
}

func Test_Frame_NeverContainsInteriorZero(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "payload")
		frame := Frame(payload)
		for i, b := range frame {
			if b == 0 {
				assert.Equal(t, len(frame)-1, i, "zero byte must only be the terminator")
			}
		}
	})
}

func Test_FrameUnframe_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := rapid.SliceOfN(rapid.Byte(), 0, 128).Draw(t, "payload")
		frame := Frame(payload)
		got, err := Unframe(frame)
		require.NoError(t, err)
		if len(payload) == 0 {
			assert.Len(t, got, 0)
		} else {
			assert.Equal(t, payload, got)
		}
	})
}

func Test_Cobs_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 512).Draw(t, "data")
		encoded := cobsEncode(data)
		for _, b := range encoded {
			assert.NotZero(t, b)
		}
		decoded, err := cobsDecode(encoded)
		require.NoError(t, err)
		assert.Equal(t, data, decoded)
	})
}
