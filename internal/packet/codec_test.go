package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func Test_Parse_RoundTrip(t *testing.T) {
	line := "N0CALL>APRS,WIDE1-1,WIDE2-1:!3553.50N/10602.50W>Test comment"
	p, err := Parse(line)
	require.NoError(t, err)
	assert.Equal(t, Canonicalize(line), Encode(p))
}

func Test_Parse_InvalidFormat(t *testing.T) {
	_, err := Parse("no colon here")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func Test_Parse_InvalidHeader(t *testing.T) {
	_, err := Parse("N0CALL:data")
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func Test_Parse_Path(t *testing.T) {
	p, err := Parse("N0CALL>APRS,WIDE1-1*,WIDE2-1:>status")
	require.NoError(t, err)
	require.Len(t, p.Path, 2)
	assert.Equal(t, "WIDE1-1", p.Path[0].Call)
	assert.True(t, p.Path[0].Used)
	assert.False(t, p.Path[1].Used)
}

func Test_Classify(t *testing.T) {
	cases := map[string]Type{
		"!3553.50N/10602.50W>":  PositionNoTimestamp,
		"=3553.50N/10602.50W>":  PositionNoTimestamp,
		"/092345z3553.50N/10602.50W>": PositionWithTimestamp,
		":KC0ABC   :hi":         Message,
		">status text":          Status,
		";OBJECT   *":           Object,
		")ITEM!":                Item,
		"?APRS?":                Query,
		"Tpackets":              Telemetry,
		"_weather":              Weather,
		"{userdef":              UserDefined,
	}
	for data, want := range cases {
		p, err := Parse("N0CALL>APRS:" + data)
		require.NoError(t, err)
		assert.Equal(t, want, p.Type, "data=%q", data)
	}
}

func Test_Bulletin_Refinement(t *testing.T) {
	p, err := Parse("N0CALL>APRS::BLN1     :bulletin text")
	require.NoError(t, err)
	assert.Equal(t, Bulletin, p.Type)
}

func Test_ThirdParty_Unwrap(t *testing.T) {
	inner := "N0CALL>APRS:>status"
	p, err := Parse("GATEWAY>APRS:}" + inner)
	require.NoError(t, err)
	assert.True(t, p.IsThirdParty())

	unwrapped, err := p.Unwrap()
	require.NoError(t, err)
	assert.Equal(t, "N0CALL", unwrapped.Source)
}

// Rapid property test for the spec §8 round-trip invariant, generating
// synthetic source/destination/path/data combinations rather than random
// byte soup, since Parse's grammar is header-shaped.
func Test_Parse_RoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		source := rapid.StringMatching(`[A-Z0-9]{3,6}(-[0-9]{1,2})?`).Draw(rt, "source")
		dest := rapid.StringMatching(`[A-Z0-9]{3,6}`).Draw(rt, "dest")
		data := rapid.StringMatching(`[!>][ -~]{0,20}`).Draw(rt, "data")

		line := source + ">" + dest + ":" + data
		p, err := Parse(line)
		if err != nil {
			return
		}
		assert.Equal(t, Canonicalize(line), Encode(p))
	})
}
