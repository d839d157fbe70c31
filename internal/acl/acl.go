// Package acl implements connection-time allow/deny lists and per-client
// flood protection (spec §4.10).
package acl

import (
	"sync"
	"time"
)

// DefaultBanDuration is the spec §4.10 default flood-ban length.
const DefaultBanDuration = 300 * time.Second

// Policy holds the static allow/deny configuration plus per-client flood
// tracking and bans. Immutable fields (Blacklist/Whitelist contents aside)
// are read without synchronization per spec §5; the mutable ban/flood
// state is behind the mutex.
type Policy struct {
	Blacklist map[string]bool
	Whitelist map[string]bool

	FloodEnabled    bool
	FloodMaxPackets int           // per rolling window
	FloodMaxBytes   int           // per rolling window
	FloodWindow     time.Duration // default 60s
	BanDuration     time.Duration // default 300s

	mu      sync.Mutex
	banned  map[string]time.Time // key -> ban expiry
	clients map[string]*clientFlood
}

type clientFlood struct {
	windowStart time.Time
	packets     int
	bytes       int
}

// New constructs a Policy with spec defaults for the timing fields.
func New() *Policy {
	return &Policy{
		Blacklist:   make(map[string]bool),
		Whitelist:   make(map[string]bool),
		FloodWindow: 60 * time.Second,
		BanDuration: DefaultBanDuration,
		banned:      make(map[string]time.Time),
		clients:     make(map[string]*clientFlood),
	}
}

// AllowConnect reports whether a connection from ip/callsign may proceed:
// false iff either is blacklisted, iff the whitelist is non-empty and
// neither is in it, or iff either is currently flood-banned.
func (p *Policy) AllowConnect(ip, call string, now time.Time) bool {
	if p.Blacklist[ip] || p.Blacklist[call] {
		return false
	}
	if len(p.Whitelist) > 0 && !p.Whitelist[ip] && !p.Whitelist[call] {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, key := range []string{ip, call} {
		if expiry, ok := p.banned[key]; ok {
			if now.Before(expiry) {
				return false
			}
			delete(p.banned, key)
		}
	}
	return true
}

// AllowSend reports whether a client (identified by key, typically its
// callsign) may send another packet of packetSize bytes; if the rolling
// flood counters exceed the configured limit, the client is banned for
// BanDuration and AllowSend returns false for this and subsequent calls
// until the ban expires.
func (p *Policy) AllowSend(key string, packetSize int, now time.Time) bool {
	if !p.FloodEnabled {
		return true
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if expiry, ok := p.banned[key]; ok && now.Before(expiry) {
		return false
	}

	cf, ok := p.clients[key]
	if !ok || now.Sub(cf.windowStart) > p.FloodWindow {
		cf = &clientFlood{windowStart: now}
		p.clients[key] = cf
	}
	cf.packets++
	cf.bytes += packetSize

	exceeded := (p.FloodMaxPackets > 0 && cf.packets > p.FloodMaxPackets) ||
		(p.FloodMaxBytes > 0 && cf.bytes > p.FloodMaxBytes)
	if exceeded {
		p.banned[key] = now.Add(p.BanDuration)
		return false
	}
	return true
}

// IsBanned reports whether key is currently under a flood ban.
func (p *Policy) IsBanned(key string, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	expiry, ok := p.banned[key]
	return ok && now.Before(expiry)
}
