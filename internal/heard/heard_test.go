package heard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Record_IsHeard_WithinWindow(t *testing.T) {
	tbl := New(10 * time.Second)
	now := time.Now()
	tbl.Record("N0CALL", true, now)
	assert.True(t, tbl.IsHeard("N0CALL", now.Add(5*time.Second)))
	assert.False(t, tbl.IsHeard("N0CALL", now.Add(11*time.Second)))
}

func Test_IsHeardDirect_DistinguishesFromIndirect(t *testing.T) {
	tbl := New(10 * time.Second)
	now := time.Now()
	tbl.Record("N0CALL", false, now)
	assert.True(t, tbl.IsHeard("N0CALL", now))
	assert.False(t, tbl.IsHeardDirect("N0CALL", now))
}

func Test_Sweep_EvictsExpiredFromBothTables(t *testing.T) {
	tbl := New(5 * time.Second)
	now := time.Now()
	tbl.Record("DIRECT", true, now)
	tbl.Record("INDIRECT", false, now)

	evicted := tbl.Sweep(now.Add(6 * time.Second))
	assert.Equal(t, 2, evicted)
	assert.False(t, tbl.IsHeard("DIRECT", now.Add(6*time.Second)))
}

func Test_Lookup_ReportsDirectness(t *testing.T) {
	tbl := New(10 * time.Second)
	now := time.Now()
	tbl.Record("N0CALL", true, now)

	ts, direct, ok := tbl.Lookup("N0CALL")
	require.True(t, ok)
	assert.True(t, direct)
	assert.Equal(t, now, ts)

	_, _, ok = tbl.Lookup("NOTHEARD")
	assert.False(t, ok)
}

func Test_Snapshot_CopiesBothTables(t *testing.T) {
	tbl := New(10 * time.Second)
	now := time.Now()
	tbl.Record("A", true, now)
	tbl.Record("B", false, now)

	snap := tbl.Snapshot()
	assert.Len(t, snap.Direct, 1)
	assert.Len(t, snap.Indirect, 1)
}
