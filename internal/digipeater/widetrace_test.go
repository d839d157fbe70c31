package digipeater

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseWideTrace_Valid(t *testing.T) {
	wt, ok := parseWideTrace("WIDE2-1")
	require.True(t, ok)
	assert.False(t, wt.trace)
	assert.Equal(t, 2, wt.n)
	assert.Equal(t, 1, wt.hops)

	wt, ok = parseWideTrace("TRACE7-7")
	require.True(t, ok)
	assert.True(t, wt.trace)
	assert.Equal(t, 7, wt.n)
	assert.Equal(t, 7, wt.hops)
}

func Test_ParseWideTrace_Invalid(t *testing.T) {
	invalid := []string{"WIDE8-1", "WIDE1-2", "WIDE0-0", "WIDE", "WIDE1-", "TRACE-1", "RELAY"}
	for _, s := range invalid {
		_, ok := parseWideTrace(s)
		assert.False(t, ok, s)
	}
}

func Test_Decremented(t *testing.T) {
	wt, _ := parseWideTrace("WIDE3-3")
	next, exhausted := wt.decremented()
	assert.Equal(t, "WIDE3-2", next.String())
	assert.False(t, exhausted)

	wt, _ = parseWideTrace("WIDE1-1")
	next, exhausted = wt.decremented()
	assert.Equal(t, "WIDE1-0", next.String())
	assert.True(t, exhausted)
}
