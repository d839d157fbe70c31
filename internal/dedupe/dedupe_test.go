package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_IsDuplicate_WithinWindow(t *testing.T) {
	f := New(30 * time.Second)
	now := time.Now()

	assert.False(t, f.IsDuplicate("N0CALL", []byte("!data"), now))
	f.Record("N0CALL", []byte("!data"), now)
	assert.True(t, f.IsDuplicate("N0CALL", []byte("!data"), now.Add(10*time.Second)))
}

func Test_IsDuplicate_AfterEviction(t *testing.T) {
	f := New(30 * time.Second)
	now := time.Now()

	f.Record("N0CALL", []byte("!data"), now)
	f.Sweep(now.Add(31 * time.Second))
	assert.False(t, f.IsDuplicate("N0CALL", []byte("!data"), now.Add(31*time.Second)))
}

func Test_IsDuplicate_DifferentSourceNotDuplicate(t *testing.T) {
	f := New(30 * time.Second)
	now := time.Now()

	f.Record("N0CALL", []byte("!data"), now)
	assert.False(t, f.IsDuplicate("N1CALL", []byte("!data"), now))
}

func Test_Window_Zero_DisablesDedup(t *testing.T) {
	f := New(0)
	now := time.Now()
	f.Record("N0CALL", []byte("!data"), now)
	assert.False(t, f.IsDuplicate("N0CALL", []byte("!data"), now))
}

func Test_Sweep_EvictsOnlyExpired(t *testing.T) {
	f := New(10 * time.Second)
	now := time.Now()

	f.Record("OLD", []byte("a"), now)
	f.Record("NEW", []byte("b"), now.Add(5*time.Second))

	evicted := f.Sweep(now.Add(11 * time.Second))
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, f.Len())
}
