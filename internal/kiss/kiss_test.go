package kiss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_EncodeDecode_RoundTrip(t *testing.T) {
	payload := []byte{0x01, 0xC0, 0x02, 0xDB, 0x03}
	framed := Encode(0, CmdDataFrame, payload)

	assert.Equal(t, byte(FEND), framed[0])
	assert.Equal(t, byte(FEND), framed[len(framed)-1])

	ch, cmd, decoded, ok := Decode(framed[1 : len(framed)-1])
	require.True(t, ok)
	assert.Equal(t, byte(0), ch)
	assert.Equal(t, byte(CmdDataFrame), cmd)
	assert.Equal(t, payload, decoded)
}

func Test_Escaping(t *testing.T) {
	framed := Encode(3, CmdDataFrame, []byte{FEND, FESC})
	// channel 3 in high nibble, data-frame command in low nibble
	assert.Equal(t, byte(0x30), framed[1])
	// FEND -> FESC TFEND, FESC -> FESC TFESC
	assert.Contains(t, framed, byte(FESC))
}

func Test_Extractor_ReassemblesMultipleFrames(t *testing.T) {
	var e Extractor
	var frames [][]byte

	first := Encode(0, CmdDataFrame, []byte("hello"))
	second := Encode(0, CmdDataFrame, []byte("world"))

	frames = append(frames, e.Feed(first)...)
	frames = append(frames, e.Feed(second)...)

	require.Len(t, frames, 2)
	_, _, p1, ok := Decode(frames[0])
	require.True(t, ok)
	assert.Equal(t, "hello", string(p1))

	_, _, p2, ok := Decode(frames[1])
	require.True(t, ok)
	assert.Equal(t, "world", string(p2))
}

func Test_Extractor_IgnoresLeadingNoise(t *testing.T) {
	var e Extractor
	noisy := append([]byte{0x00, 0x01, 0x02}, Encode(0, CmdDataFrame, []byte("x"))...)
	frames := e.Feed(noisy)
	require.Len(t, frames, 1)
}
