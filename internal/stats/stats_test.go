package stats

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func Test_Snapshot_ReflectsIncrements(t *testing.T) {
	s := New(nil)
	s.IncRFRx()
	s.IncRFRx()
	s.IncISTx()
	s.IncDigipeated()
	s.IncGatedToRF()
	s.IncGatedToIS()

	snap := s.Snapshot()
	assert.Equal(t, uint64(2), snap.RFRx)
	assert.Equal(t, uint64(1), snap.ISTx)
	assert.Equal(t, uint64(1), snap.Digipeated)
	assert.Equal(t, uint64(1), snap.GatedToRF)
	assert.Equal(t, uint64(1), snap.GatedToIS)
	assert.Equal(t, uint64(0), snap.RFTx)
}

func Test_New_RegistersWithRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(reg)
	s.IncRFRx()

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}
