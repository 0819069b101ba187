package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func Test_Parser_BinaryWithEmbeddedNewline(t *testing.T) {
	var p Parser
	sentences, err := p.FeedBytes([]byte("wrp,8,Hi\nThere\n"))
	require.NoError(t, err)
	require.Len(t, sentences, 1)
	assert.Equal(t, CodeGotPacket, sentences[0].Code)
	assert.Equal(t, [][]byte{[]byte("8"), []byte("Hi\nThere")}, sentences[0].Options)
}

func Test_Parser_PartialPacketResumes(t *testing.T) {
	var p Parser
	sentences, err := p.FeedBytes([]byte("wrp,8,Hello"))
	require.NoError(t, err)
	assert.Empty(t, sentences)

	sentences, err = p.FeedBytes([]byte("Sea\n"))
	require.NoError(t, err)
	require.Len(t, sentences, 1)
	assert.Equal(t, [][]byte{[]byte("8"), []byte("HelloSea")}, sentences[0].Options)
}

func Test_Parser_ChecksumError_Resyncs(t *testing.T) {
	var p Parser
	_, err := p.FeedBytes([]byte("wrp,8,HelloSea*ff\n"))
	assert.ErrorIs(t, err, ErrChecksum)

	sentences, err := p.FeedBytes([]byte("wcv\n"))
	require.NoError(t, err)
	require.Len(t, sentences, 1)
	assert.Equal(t, CodeVersion, sentences[0].Code)
}

func Test_Parser_InvalidSentence_Resyncs(t *testing.T) {
	var p Parser
	_, err := p.FeedBytes([]byte("wzx\n"))
	assert.ErrorIs(t, err, ErrParse)

	sentences, err := p.FeedBytes([]byte("wcv\n"))
	require.NoError(t, err)
	require.Len(t, sentences, 1)
}

func Test_Parser_AnyEOPAccepted(t *testing.T) {
	var p Parser
	sentences, err := p.FeedBytes([]byte("wcv\r\nwcv\rwcv\n"))
	require.NoError(t, err)
	assert.Len(t, sentences, 3)
}

func Test_Parser_GetDataInterleavedWithQueueLength(t *testing.T) {
	var p Parser
	sentences, err := p.FeedBytes([]byte("wrp,8,12345678\nwrl,8\n"))
	require.NoError(t, err)
	require.Len(t, sentences, 2)
	assert.Equal(t, CodeGotPacket, sentences[0].Code)
	assert.Equal(t, CodeQueueLength, sentences[1].Code)
}

// Test_Parser_ArbitraryChunking checks spec.md §8's streaming parser
// invariant: any split of a valid stream into chunks yields the same
// sentence sequence as feeding it whole.
func Test_Parser_ArbitraryChunking(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 4).Draw(t, "n")
		var whole []byte
		var expected []Sentence
		for i := 0; i < n; i++ {
			code := rapid.SampledFrom([]Code{CodeVersion, CodePayloadSize, CodeQueueLength}).Draw(t, "code")
			opt := rapid.StringMatching(`[0-9]{1,3}`).Draw(t, "opt")
			s := Encode(DirResponse, code, [][]byte{[]byte(opt)}, rapid.Bool().Draw(t, "checksum"))
			whole = append(whole, s...)
			sentence, err := Decode(s)
			require.NoError(t, err)
			expected = append(expected, sentence)
		}

		var p Parser
		var got []Sentence
		pos := 0
		for pos < len(whole) {
			chunkLen := rapid.IntRange(1, len(whole)-pos).Draw(t, "chunklen")
			chunk := whole[pos : pos+chunkLen]
			pos += chunkLen
			sentences, err := p.FeedBytes(chunk)
			require.NoError(t, err)
			got = append(got, sentences...)
		}

		require.Len(t, got, len(expected))
		for i := range expected {
			assert.Equal(t, expected[i].Code, got[i].Code)
			assert.Equal(t, expected[i].Options, got[i].Options)
		}
	})
}
