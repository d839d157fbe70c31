package coordinator

import (
	"testing"

	"github.com/n0call/aprsgw/internal/ax25"
	"github.com/n0call/aprsgw/internal/config"
	"github.com/n0call/aprsgw/internal/packet"
	"github.com/n0call/aprsgw/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FormatLat_NorthSouth(t *testing.T) {
	assert.Equal(t, "3553.50N", formatLat(35.891666666666666))
	assert.Equal(t, "3553.50S", formatLat(-35.891666666666666))
}

func Test_FormatLon_EastWest(t *testing.T) {
	assert.Equal(t, "10602.50W", formatLon(-106.04166666666667))
	assert.Equal(t, "10602.50E", formatLon(106.04166666666667))
}

func Test_BuildBeacon_WithFix(t *testing.T) {
	var cfg config.Config
	cfg.Digipeater.Callsign = "N0CALL"
	cfg.Digipeater.SSID = 9
	cfg.Beacon.HasFix = true
	cfg.Beacon.Latitude = 35.891666666666666
	cfg.Beacon.Longitude = -106.04166666666667
	cfg.Beacon.Symbol = "/#"
	cfg.Beacon.Comment = "test beacon"

	c := New(cfg, nil)
	p := c.buildBeacon()
	assert.Equal(t, "N0CALL-9", p.Source)
	assert.Equal(t, "APRS", p.Destination)
	assert.Contains(t, string(p.Data), "3553.50N")
	assert.Contains(t, string(p.Data), "10602.50W")
}

func Test_BuildBeacon_NoFix(t *testing.T) {
	var cfg config.Config
	cfg.Digipeater.Callsign = "N0CALL"
	cfg.Beacon.Comment = "status only"

	c := New(cfg, nil)
	p := c.buildBeacon()
	require.NotEmpty(t, p.Data)
	assert.Contains(t, string(p.Data), "status only")
}

func Test_New_BuildsEveryComponent(t *testing.T) {
	var cfg config.Config
	cfg.Digipeater.Callsign = "N0CALL"
	cfg.Server.Port = 14580

	c := New(cfg, nil)
	require.NotNil(t, c.dedupe)
	require.NotNil(t, c.digipeater)
	require.NotNil(t, c.rfgate)
	require.NotNil(t, c.broker)
	assert.Equal(t, stats.Counters{}, c.Stats())
}

func Test_PacketFromAX25_RoundTripsTextPacket(t *testing.T) {
	line := "N0CALL>APRS,WIDE1-1,WIDE2-1:!3553.50N/10602.50W>Test"
	original, err := packet.Parse(line)
	require.NoError(t, err)

	frame := ax25.EncodeFrame("APRS", 0, "N0CALL", 0,
		[]ax25.PathAddr{{Call: "WIDE1", SSID: 1}, {Call: "WIDE2", SSID: 1}},
		original.Data)

	decoded, ok := PacketFromAX25(frame)
	require.True(t, ok)
	assert.Equal(t, "N0CALL", decoded.Source)
	assert.Equal(t, "APRS", decoded.Destination)
	require.Len(t, decoded.Path, 2)
	assert.Equal(t, "WIDE1-1", decoded.Path[0].Call)
	assert.Equal(t, "WIDE2-1", decoded.Path[1].Call)
	assert.Equal(t, original.Data, decoded.Data)
}

func Test_PacketFromAX25_RejectsTruncatedFrame(t *testing.T) {
	_, ok := PacketFromAX25([]byte{0x01, 0x02})
	assert.False(t, ok)
}
