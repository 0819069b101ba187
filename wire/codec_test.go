package wire

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func Test_Encode_GetVersion(t *testing.T) {
	got := Encode(DirCommand, CodeVersion, nil, false)
	assert.Equal(t, []byte("wcv\n"), got)
}

func Test_Decode_Version(t *testing.T) {
	s, err := Decode([]byte("wrv,1,0,1*44\n"))
	require.NoError(t, err)
	assert.Equal(t, DirResponse, s.Direction)
	assert.Equal(t, CodeVersion, s.Code)
	assert.Equal(t, [][]byte{[]byte("1"), []byte("0"), []byte("1")}, s.Options)
}

func Test_Decode_GotPacket(t *testing.T) {
	s, err := Decode([]byte("wrp,8,12345678*83\n"))
	require.NoError(t, err)
	assert.Equal(t, CodeGotPacket, s.Code)
	assert.Equal(t, [][]byte{[]byte("8"), []byte("12345678")}, s.Options)
}

func Test_Decode_GotPacket_EmbeddedEOP(t *testing.T) {
	s, err := Decode([]byte("wrp,8,\n\n\n\n\n\n\n*93\n"))
	require.NoError(t, err)
	assert.Equal(t, CodeGotPacket, s.Code)
	assert.Equal(t, [][]byte{[]byte("8"), []byte("\n\n\n\n\n\n\n")}, s.Options)
}

func Test_Decode_ChecksumMismatch(t *testing.T) {
	_, err := Decode([]byte("wrp,8,HelloSea*ff\n"))
	assert.ErrorIs(t, err, ErrChecksum)
	assert.ErrorIs(t, err, ErrParse)
}

func Test_Decode_UnknownCode(t *testing.T) {
	_, err := Decode([]byte("wzx\n"))
	assert.ErrorIs(t, err, ErrParse)
	assert.False(t, errors.Is(err, ErrChecksum))
}

func Test_EncodeDecode_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		code := rapid.SampledFrom([]Code{
			CodeVersion, CodePayloadSize, CodeQueueLength, CodeDiagnostic,
			CodeGetSettings, CodeSetSettings, CodeQueuePacket, CodeFlush, CodeGotPacket,
		}).Draw(t, "code")
		dir := rapid.SampledFrom([]Direction{DirCommand, DirResponse}).Draw(t, "dir")
		checksum := rapid.Bool().Draw(t, "checksum")

		var options [][]byte
		if code.hasBinaryPayload() {
			// length prefix must match the actual payload length for a
			// round trip to be meaningful: the decoder trusts it verbatim.
			payload := rapid.SliceOfN(rapid.Byte(), 0, 32).Draw(t, "payload")
			options = [][]byte{[]byte(fmt.Sprintf("%d", len(payload))), payload}
		} else {
			n := rapid.IntRange(0, 3).Draw(t, "noptions")
			for i := 0; i < n; i++ {
				opt := rapid.StringMatching(`[A-Za-z0-9]{0,6}`).Draw(t, "opt")
				options = append(options, []byte(opt))
			}
		}

		encoded := Encode(dir, code, options, checksum)
		decoded, err := Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, dir, decoded.Direction)
		assert.Equal(t, code, decoded.Code)
		assert.Equal(t, options, decoded.Options)
	})
}
