package filter

import (
	"testing"

	"github.com/n0call/aprsgw/internal/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func posPacket(lat, lon float64) *packet.Packet {
	p, err := packet.Parse("N0CALL>APRS:!3553.50N/10602.50W>test")
	if err != nil {
		panic(err)
	}
	_ = lat
	_ = lon
	return &p
}

func Test_Filter_EmptyMatchesAll(t *testing.T) {
	var f Filter
	assert.True(t, f.Match(posPacket(0, 0)))
}

func Test_Parse_RangeToken(t *testing.T) {
	f, err := Parse("r/35.89/-106.04/100")
	require.NoError(t, err)
	require.Len(t, f, 1)
	_, ok := f[0].(Range)
	assert.True(t, ok)
}

func Test_Parse_UnknownTokenDroppedSilently(t *testing.T) {
	f, err := Parse("z/foo p/N0")
	require.NoError(t, err)
	require.Len(t, f, 1)
	_, ok := f[0].(Prefix)
	assert.True(t, ok)
}

func Test_Parse_InvalidRangeArgs(t *testing.T) {
	_, err := Parse("r/notanumber/-106.04/100")
	assert.Error(t, err)
}

func Test_Budlist_MatchesSourceDestOrPath(t *testing.T) {
	b := Budlist{Calls: []string{"WIDE1-1"}}
	p, err := packet.Parse("N0CALL>APRS,WIDE1-1:!3553.50N/10602.50W>test")
	require.NoError(t, err)
	assert.True(t, b.Match(&p))
	assert.True(t, Budlist{Calls: []string{"N0CALL"}}.Match(&p))
	assert.True(t, Budlist{Calls: []string{"APRS"}}.Match(&p))
}

func Test_Prefix_Match(t *testing.T) {
	pf := Prefix{Prefixes: []string{"N0"}}
	p, err := packet.Parse("N0CALL>APRS:!3553.50N/10602.50W>test")
	require.NoError(t, err)
	assert.True(t, pf.Match(&p))
}

func Test_TypeSet_MatchesPosition(t *testing.T) {
	ts := TypeSet{Position: true}
	p, err := packet.Parse("N0CALL>APRS:!3553.50N/10602.50W>test")
	require.NoError(t, err)
	assert.True(t, ts.Match(&p))

	ts2 := TypeSet{Message: true}
	assert.False(t, ts2.Match(&p))
}

func Test_Filter_OrSemantics(t *testing.T) {
	f, err := Parse("p/NOMATCH b/N0CALL")
	require.NoError(t, err)
	p, err := packet.Parse("N0CALL>APRS:!3553.50N/10602.50W>test")
	require.NoError(t, err)
	assert.True(t, f.Match(&p))
}
