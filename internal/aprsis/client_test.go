package aprsis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_LoginLine_WithFilter(t *testing.T) {
	line := loginLine(Config{
		Callsign: "N0CALL", Passcode: 12345,
		AppName: "aprsgw", AppVersion: "1.0", Filter: "p/N0",
	})
	assert.Equal(t, "user N0CALL pass 12345 vers aprsgw 1.0 filter p/N0", line)
}

func Test_LoginLine_WithoutFilter(t *testing.T) {
	line := loginLine(Config{
		Callsign: "N0CALL", Passcode: -1,
		AppName: "aprsgw", AppVersion: "1.0",
	})
	assert.Equal(t, "user N0CALL pass -1 vers aprsgw 1.0", line)
}

func Test_State_String(t *testing.T) {
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "connecting", Connecting.String())
	assert.Equal(t, "connected", Connected.String())
}

func Test_New_AppliesBackoffDefaults(t *testing.T) {
	c := New(Config{Addr: "example.invalid:10152"}, nil)
	assert.Equal(t, Disconnected, c.State())
	assert.Equal(t, 5*time.Second, c.cfg.InitialBackoff)
	assert.Equal(t, 5*time.Minute, c.cfg.MaxBackoff)
}
