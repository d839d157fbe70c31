package digipeater

import "time"

// Config holds a digipeater's static configuration (spec §4.4 "State").
// Read without synchronization on the hot path per spec §5. A Digipeater
// copies its Config at construction; reconfiguring means building a new
// Digipeater from a new Config.
type Config struct {
	Enabled bool

	OwnCall string
	OwnSSID int
	Aliases []string // additional exact-match alias tokens, e.g. "RELAY"

	MaxHops int // max used-hop count post-rewrite (spec default: 7)

	DedupWindow  time.Duration // default 30s
	FloodWindow  time.Duration // default 30s (window over which max flood rate is counted)
	MaxFloodRate int           // max digipeats from one source within FloodWindow

	ViscousDelay time.Duration // default 0 (disabled)

	FillIn     bool // only WIDE1-1 is a valid wide match
	Preemptive bool // insert-before instead of decrement-in-place

	FilterWX        bool // drop weather packets
	FilterTelemetry bool // drop telemetry packets

	Blacklist map[string]bool
	Whitelist map[string]bool
}

// DefaultConfig returns the Open-Questions-resolved default set (spec
// SPEC_FULL.md §E): no viscous delay, max_hops=7, fill-in and preemptive
// both off — the more commonly deployed of the two historical variants the
// teacher's source carries.
func DefaultConfig(ownCall string, ownSSID int) Config {
	return Config{
		Enabled:      true,
		OwnCall:      ownCall,
		OwnSSID:      ownSSID,
		MaxHops:      7,
		DedupWindow:  30 * time.Second,
		FloodWindow:  30 * time.Second,
		MaxFloodRate: 10,
		ViscousDelay: 0,
		FillIn:       false,
		Preemptive:   false,
		Blacklist:    map[string]bool{},
		Whitelist:    map[string]bool{},
	}
}
