package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("digipeater:\n  callsign: N0CALL\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "N0CALL", cfg.Digipeater.Callsign)
	assert.Equal(t, 7, cfg.Digipeater.MaxHops)
	assert.Equal(t, 14580, cfg.Server.Port)
	assert.Equal(t, 256, cfg.Server.MaxClients)
	assert.Equal(t, "message_only", cfg.RFGate.ISToRFType)
	assert.Equal(t, "aprsgw", cfg.APRSIS.Software)
	assert.Equal(t, 1800, cfg.Beacon.IntervalSeconds)
	assert.Equal(t, "/#", cfg.Beacon.Symbol)
}

func Test_Load_PreservesExplicitValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "server:\n  port: 10152\ndigipeater:\n  max_hops: 3\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10152, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Digipeater.MaxHops)
}

func Test_Load_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func Test_Load_ResolvesUTMBeaconPosition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "beacon:\n  utm_zone: 13\n  utm_hemisphere: N\n  utm_easting: 346000\n  utm_northing: 3973000\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Beacon.HasFix)
	assert.NotZero(t, cfg.Beacon.Latitude)
	assert.NotZero(t, cfg.Beacon.Longitude)
}
