// Package rfgate implements the bidirectional RF<->APRS-IS gating policy
// (spec §4.5): which RF-heard packets get forwarded to APRS-IS, which
// APRS-IS traffic gets transmitted onto RF, and the heard-station
// bookkeeping and SATgate hold that gate those decisions.
//
// Grounded on doismellburning/samoyed's igate.go (the RF<->IS gating rules
// and the "igmsp" message-sender-position allowance) and mheard.go (now
// [[heard]], promoted to its own package). The object's config is read
// without synchronization on the hot path; the heard table and the gate's
// own mutable state (satgate holds, the IS->RF emission counter) each
// carry their own lock, per the single-owner model of spec §5.
package rfgate

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/n0call/aprsgw/internal/geo"
	"github.com/n0call/aprsgw/internal/heard"
	"github.com/n0call/aprsgw/internal/packet"
	"github.com/n0call/aprsgw/internal/qconstruct"
)

// Reason enumerates why a packet was not gated in one direction or another.
type Reason string

const (
	ReasonOK                 Reason = ""
	ReasonThirdParty         Reason = "third_party_not_gated"
	ReasonAlreadyGated       Reason = "already_gated"
	ReasonPathHygiene        Reason = "path_hygiene"
	ReasonOutOfRange         Reason = "out_of_range"
	ReasonFilteredType       Reason = "filtered_type"
	ReasonNotHeardDirect     Reason = "sender_not_heard_direct"
	ReasonMessageNoRecipient Reason = "message_recipient_unknown"
	ReasonSatgateHeld        Reason = "satgate_held"
	ReasonDisabled           Reason = "disabled"
	ReasonRateLimited        Reason = "rate_limited"
	ReasonMaxHopsToRF        Reason = "max_hops_to_rf_exceeded"
)

// DefaultRateLimitWindow is the spec §4.5 "last rate_limit_window" default
// used to count IS->RF emissions against MaxRFRate.
const DefaultRateLimitWindow = time.Minute

// Config is a gate's static configuration (spec §4.5 "State").
type Config struct {
	Enabled bool

	OwnCall string

	// RangeLimitKm, if > 0, caps RF->IS gating to packets whose extracted
	// position is within this great-circle distance of the gate's own
	// position (spec §4.5 "gate_local_only"); packets without a position
	// are always treated as local. Zero disables the check.
	RangeLimitKm float64
	HasPosition  bool
	Latitude     float64
	Longitude    float64

	// SatgateDelay is how long HoldForSatgate holds a packet (spec §4.5
	// "SATgate delay"); while a hold is pending, GateRFToIS called with
	// satellitePath set refuses that packet. Zero disables the check.
	SatgateDelay time.Duration

	// GateMessages/GatePositions/GateWeather/GateTelemetry/GateObjects
	// restrict RF->IS gating to the enabled type categories (spec §4.5
	// "Type filter"). If none are set, every category is allowed — an
	// operator opts into type filtering by enabling at least one.
	GateMessages  bool
	GatePositions bool
	GateWeather   bool
	GateTelemetry bool
	GateObjects   bool

	// MaxRFRate, if > 0, caps IS->RF emissions to this many per
	// RateLimitWindow (default DefaultRateLimitWindow), spec §4.5 "Rate
	// limit".
	MaxRFRate       int
	RateLimitWindow time.Duration

	// MaxHopsToRF, if > 0, caps the sum of remaining-hop budgets
	// (WIDEn-N's N, or 1 for a plain unused hop) over a packet's unused
	// path elements before it may be gated to RF, spec §4.5
	// "Remaining-hop budget".
	MaxHopsToRF int

	// IGateMessagesOnly restricts IS->RF gating to Message-type packets
	// addressed to a directly-heard local station (the common igate
	// posture: don't digipeat IS position traffic onto RF).
	IGateMessagesOnly bool
}

// Gate owns the heard-station table, satgate hold queue, and IS->RF
// emission-rate counter for one RF<->IS gateway instance.
type Gate struct {
	cfg   Config
	heard *heard.Table

	mu        sync.Mutex
	holds     map[string]*time.Timer
	emissions []time.Time // timestamps of recent IS->RF emissions, for MaxRFRate
}

func New(cfg Config, heardTable *heard.Table) *Gate {
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = DefaultRateLimitWindow
	}
	return &Gate{cfg: cfg, heard: heardTable, holds: make(map[string]*time.Timer)}
}

// ObserveRF records a station as heard, directly or via digipeat, ahead of
// any gating decision. Must be called for every RF reception, including
// ones ultimately not gated, so the heard table stays authoritative for
// IS->RF decisions.
func (g *Gate) ObserveRF(p *packet.Packet, now time.Time) {
	g.heard.Record(p.Source, !hasDigipeated(p.Path), now)
}

func hasDigipeated(path []packet.PathElement) bool {
	for _, e := range path {
		if e.Used {
			return true
		}
	}
	return false
}

// GateRFToIS decides whether an RF-heard packet should be forwarded to
// APRS-IS, returning the rewritten packet (q-construct applied, per spec
// §4.3/§4.5) when it should. When satellitePath is set, a packet with a
// pending HoldForSatgate hold is refused with ReasonSatgateHeld;
// GateRFToIS does not place holds itself.
func (g *Gate) GateRFToIS(p packet.Packet, satellitePath bool, now time.Time) (packet.Packet, Reason) {
	if !g.cfg.Enabled {
		return packet.Packet{}, ReasonDisabled
	}
	if p.IsThirdParty() {
		return packet.Packet{}, ReasonThirdParty
	}
	if qconstruct.Find(p.Path) >= 0 {
		return packet.Packet{}, ReasonAlreadyGated
	}
	if !pathHygieneOK(p.Path) {
		return packet.Packet{}, ReasonPathHygiene
	}
	if !g.typeAllowed(p.Type) {
		return packet.Packet{}, ReasonFilteredType
	}
	if g.cfg.RangeLimitKm > 0 && g.cfg.HasPosition {
		if pos, ok := p.Position(); ok {
			d := geo.DistanceKm(g.cfg.Latitude, g.cfg.Longitude, pos.Latitude, pos.Longitude)
			if d > g.cfg.RangeLimitKm {
				return packet.Packet{}, ReasonOutOfRange
			}
		}
	}

	g.mu.Lock()
	if satellitePath && g.cfg.SatgateDelay > 0 {
		if _, onHold := g.holds[fingerprintKey(&p)]; onHold {
			g.mu.Unlock()
			return packet.Packet{}, ReasonSatgateHeld
		}
	}
	g.mu.Unlock()

	out := p.Clone()
	out.Path = qconstruct.ApplyRF(out.Path, g.cfg.OwnCall)
	return out, ReasonOK
}

// pathHygieneOK reports whether none of path's elements is a q-construct,
// TCPIP*, NOGATE, or RFONLY (spec §4.5 "Path hygiene").
func pathHygieneOK(path []packet.PathElement) bool {
	for _, e := range path {
		switch {
		case strings.HasPrefix(e.Call, "q"):
			return false
		case e.Call == "TCPIP", e.Call == "NOGATE", e.Call == "RFONLY":
			return false
		}
	}
	return true
}

// typeAllowed reports whether p's type passes the RF->IS type filter: if no
// gate_* category is enabled, every type is allowed; otherwise only the
// enabled categories pass.
func (g *Gate) typeAllowed(t packet.Type) bool {
	c := g.cfg
	if !c.GateMessages && !c.GatePositions && !c.GateWeather && !c.GateTelemetry && !c.GateObjects {
		return true
	}
	switch t {
	case packet.Message, packet.Bulletin:
		return c.GateMessages
	case packet.Weather:
		return c.GateWeather
	case packet.Telemetry:
		return c.GateTelemetry
	case packet.Object, packet.Item:
		return c.GateObjects
	case packet.PositionNoTimestamp, packet.PositionWithTimestamp, packet.PositionWithTimestampMsg, packet.PositionCompressed, packet.MicE:
		return c.GatePositions
	default:
		return true
	}
}

// HoldForSatgate schedules fire to run after the configured SATgate delay
// unless cancelled first by a directly-heard duplicate; see
// [[digipeater]]'s viscous queue for the analogous RF-side pattern.
func (g *Gate) HoldForSatgate(p packet.Packet, now time.Time, fire func(packet.Packet)) {
	key := fingerprintKey(&p)
	timer := time.AfterFunc(g.cfg.SatgateDelay, func() {
		g.mu.Lock()
		delete(g.holds, key)
		g.mu.Unlock()
		fire(p)
	})
	g.mu.Lock()
	g.holds[key] = timer
	g.mu.Unlock()
}

// CancelSatgateHold cancels a pending satgate hold for p's fingerprint, used
// when a directly-heard copy of the same packet arrives first.
func (g *Gate) CancelSatgateHold(p *packet.Packet) {
	key := fingerprintKey(p)
	g.mu.Lock()
	defer g.mu.Unlock()
	if t, ok := g.holds[key]; ok {
		t.Stop()
		delete(g.holds, key)
	}
}

func fingerprintKey(p *packet.Packet) string {
	return p.Source + "\x00" + string(p.Data)
}

// GateISToRF decides whether an APRS-IS packet addressed into this gate's
// local RF coverage should be transmitted, returning the RF-ready packet
// (q-constructs and TCPIP marker stripped, per spec §4.3) when it should.
//
// The igate posture (spec §4.5) only ever repeats messages, and only to
// stations it has itself heard directly on RF — never general
// position/status/object traffic, which would make this gate an
// uncontrolled RF repeater for the whole of APRS-IS.
func (g *Gate) GateISToRF(p packet.Packet, now time.Time) (packet.Packet, Reason) {
	if !g.cfg.Enabled {
		return packet.Packet{}, ReasonDisabled
	}

	if g.cfg.IGateMessagesOnly && p.Type != packet.Message {
		return packet.Packet{}, ReasonMessageNoRecipient
	}

	addressee, ok := p.Addressee()
	if !ok {
		return packet.Packet{}, ReasonMessageNoRecipient
	}

	if !g.heard.IsHeardDirect(addressee, now) {
		return packet.Packet{}, ReasonNotHeardDirect
	}

	if g.cfg.MaxHopsToRF > 0 && remainingHopBudget(p.Path) > g.cfg.MaxHopsToRF {
		return packet.Packet{}, ReasonMaxHopsToRF
	}

	if g.cfg.MaxRFRate > 0 && !g.allowEmission(now) {
		return packet.Packet{}, ReasonRateLimited
	}

	out := p.Clone()
	out.Path = qconstruct.StripForRF(out.Path)
	return out, ReasonOK
}

// allowEmission reports whether one more IS->RF emission is permitted under
// MaxRFRate, recording it if so (spec §4.5 "Rate limit").
func (g *Gate) allowEmission(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	cutoff := now.Add(-g.cfg.RateLimitWindow)
	live := g.emissions[:0]
	for _, ts := range g.emissions {
		if ts.After(cutoff) {
			live = append(live, ts)
		}
	}
	g.emissions = live

	if len(g.emissions) >= g.cfg.MaxRFRate {
		return false
	}
	g.emissions = append(g.emissions, now)
	return true
}

// remainingHopBudget sums, over path's unused elements, a WIDEn-N or
// TRACEn-N token's remaining-hops count N, or 1 for any other unused
// element (spec §4.5 "Remaining-hop budget").
func remainingHopBudget(path []packet.PathElement) int {
	total := 0
	for _, e := range path {
		if e.Used {
			continue
		}
		if n, ok := wideTraceHops(e.Call); ok {
			total += n
			continue
		}
		total++
	}
	return total
}

// wideTraceHops extracts the remaining-hops count from a "WIDEn-N" or
// "TRACEn-N" token, e.g. "WIDE2-1" -> 1. ok is false for anything else.
func wideTraceHops(call string) (int, bool) {
	var rest string
	switch {
	case strings.HasPrefix(call, "WIDE"):
		rest = call[len("WIDE"):]
	case strings.HasPrefix(call, "TRACE"):
		rest = call[len("TRACE"):]
	default:
		return 0, false
	}
	dash := strings.IndexByte(rest, '-')
	if dash != 1 {
		return 0, false
	}
	hops, err := strconv.Atoi(rest[2:])
	if err != nil || hops < 1 {
		return 0, false
	}
	return hops, true
}

// AllowIGMSP reports whether a message-sender-position packet — a position
// report from a message sender, sent so the RF recipient can see where the
// message came from — may be gated, per spec §4.5's "igmsp" allowance. It
// returns true whenever sender has not been heard directly on RF within the
// heard table's window; it keeps no per-sender count and does not check
// that a message from sender was gated.
func (g *Gate) AllowIGMSP(sender string, now time.Time) bool {
	return !g.heard.IsHeardDirect(sender, now)
}
