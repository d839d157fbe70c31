package acl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_AllowConnect_Blacklist(t *testing.T) {
	p := New()
	p.Blacklist["1.2.3.4"] = true
	assert.False(t, p.AllowConnect("1.2.3.4", "N0CALL", time.Now()))
}

func Test_AllowConnect_WhitelistExclusive(t *testing.T) {
	p := New()
	p.Whitelist["N0CALL"] = true
	now := time.Now()
	assert.True(t, p.AllowConnect("1.2.3.4", "N0CALL", now))
	assert.False(t, p.AllowConnect("1.2.3.4", "OTHER", now))
}

func Test_AllowConnect_NoListsAllowsAll(t *testing.T) {
	p := New()
	assert.True(t, p.AllowConnect("1.2.3.4", "N0CALL", time.Now()))
}

func Test_AllowSend_BansOnFloodExceeded(t *testing.T) {
	p := New()
	p.FloodEnabled = true
	p.FloodMaxPackets = 2
	p.BanDuration = 10 * time.Second
	now := time.Now()

	assert.True(t, p.AllowSend("N0CALL", 10, now))
	assert.True(t, p.AllowSend("N0CALL", 10, now))
	assert.False(t, p.AllowSend("N0CALL", 10, now))
	assert.True(t, p.IsBanned("N0CALL", now))
}

func Test_AllowSend_BanExpires(t *testing.T) {
	p := New()
	p.FloodEnabled = true
	p.FloodMaxPackets = 1
	p.BanDuration = 5 * time.Second
	now := time.Now()

	p.AllowSend("N0CALL", 10, now)
	p.AllowSend("N0CALL", 10, now)
	assert.True(t, p.IsBanned("N0CALL", now))
	assert.False(t, p.IsBanned("N0CALL", now.Add(6*time.Second)))
}

func Test_AllowSend_DisabledAlwaysAllows(t *testing.T) {
	p := New()
	now := time.Now()
	for i := 0; i < 100; i++ {
		assert.True(t, p.AllowSend("N0CALL", 1000, now))
	}
}

func Test_AllowConnect_BanExpiresAndIsCleared(t *testing.T) {
	p := New()
	p.FloodEnabled = true
	p.FloodMaxPackets = 1
	p.BanDuration = 1 * time.Second
	now := time.Now()

	p.AllowSend("N0CALL", 10, now)
	p.AllowSend("N0CALL", 10, now)
	assert.False(t, p.AllowConnect("1.2.3.4", "N0CALL", now))
	assert.True(t, p.AllowConnect("1.2.3.4", "N0CALL", now.Add(2*time.Second)))
}
