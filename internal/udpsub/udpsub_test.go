package udpsub

import (
	"testing"

	"github.com/n0call/aprsgw/internal/ax25"
	"github.com/n0call/aprsgw/internal/kiss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Decode_LiteralLine(t *testing.T) {
	p, ok := decode([]byte("N0CALL>APRS:!3553.50N/10602.50W>test"))
	require.True(t, ok)
	assert.Equal(t, "N0CALL", p.Source)
}

func Test_Decode_KISSFrame(t *testing.T) {
	path := []ax25.PathAddr{{Call: "WIDE1", SSID: 1}}
	frame := ax25.EncodeFrame("APRS", 0, "N0CALL", 0, path, []byte("!3553.50N/10602.50W>test"))
	datagram := kiss.Encode(0, kiss.CmdDataFrame, frame)

	p, ok := decode(datagram)
	require.True(t, ok)
	assert.Equal(t, "N0CALL", p.Source)
	require.Len(t, p.Path, 1)
	assert.Equal(t, "WIDE1-1", p.Path[0].Call)
}

func Test_Decode_JSON_WithDefaults(t *testing.T) {
	p, ok := decode([]byte(`{"source":"N0CALL","data":"!3553.50N/10602.50W>test"}`))
	require.True(t, ok)
	assert.Equal(t, "N0CALL", p.Source)
	assert.Equal(t, "APRS", p.Destination)
}

func Test_Decode_JSON_WithPath(t *testing.T) {
	p, ok := decode([]byte(`{"source":"N0CALL","destination":"APZ1","path":["WIDE1-1","WIDE2-2"],"data":"!3553.50N/10602.50W>test"}`))
	require.True(t, ok)
	require.Len(t, p.Path, 2)
	assert.Equal(t, "WIDE1-1", p.Path[0].Call)
}

func Test_Decode_JSON_MissingRequiredFields(t *testing.T) {
	_, ok := decode([]byte(`{"destination":"APRS"}`))
	assert.False(t, ok)
}

func Test_Decode_EmptyDatagram(t *testing.T) {
	_, ok := decode(nil)
	assert.False(t, ok)
}

func Test_Decode_InvalidLine(t *testing.T) {
	_, ok := decode([]byte("not a valid packet"))
	assert.False(t, ok)
}
