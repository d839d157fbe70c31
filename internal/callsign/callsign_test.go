package callsign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func Test_Valid(t *testing.T) {
	valid := []string{"N0CALL", "N0CALL-9", "W1AW", "KC0ABC-15", "APRS"}
	for _, c := range valid {
		assert.True(t, Valid(c), c)
	}

	invalid := []string{"", "-9", "N0CALL-16", "N0CALL-", "TOOLONGCALL", "123456"}
	for _, c := range invalid {
		assert.False(t, Valid(c), c)
	}
}

func Test_Base_SSID_WithSSID(t *testing.T) {
	assert.Equal(t, "N0CALL", Base("N0CALL-9"))
	assert.Equal(t, 9, SSID("N0CALL-9"))
	assert.Equal(t, "N0CALL-9", WithSSID("N0CALL", 9))
	assert.Equal(t, "N0CALL", WithSSID("N0CALL", 0))
}

func Test_Canonicalize(t *testing.T) {
	assert.Equal(t, "N0CALL-9", Canonicalize("n0call-9"))
}

func Test_Valid_Property_SSIDRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := rapid.StringMatching(`[A-Z][A-Z0-9]{0,5}`).Draw(rt, "base")
		ssid := rapid.IntRange(MinSSID, MaxSSID).Draw(rt, "ssid")

		full := WithSSID(base, ssid)
		if !Valid(full) {
			rt.Fatalf("expected %q to be valid", full)
		}
		if got := SSID(full); got != ssid {
			rt.Fatalf("SSID round trip: got %d want %d", got, ssid)
		}
	})
}
