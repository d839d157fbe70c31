package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Passcode_KnownValue(t *testing.T) {
	// N0CALL is the commonly cited worked example for this algorithm.
	assert.Equal(t, 13023, Passcode("N0CALL"))
	assert.Equal(t, Passcode("N0CALL"), Passcode("n0call"))
}

func Test_Passcode_IgnoresSSID(t *testing.T) {
	assert.Equal(t, Passcode("N0CALL"), Passcode("N0CALL-9"))
}

func Test_Passcode_Deterministic(t *testing.T) {
	a := Passcode("KC0ABC")
	b := Passcode("KC0ABC")
	assert.Equal(t, a, b)
	assert.GreaterOrEqual(t, a, 0)
	assert.LessOrEqual(t, a, 0x7fff)
}

func Test_Passcode_DiffersAcrossCalls(t *testing.T) {
	assert.NotEqual(t, Passcode("N0CALL"), Passcode("W1AW"))
}
