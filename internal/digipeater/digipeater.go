// Package digipeater implements the digipeat decision pipeline and hop
// rewriting state machine (spec §4.4): WIDEn-N / TRACEn-N path
// consumption, hop-limit enforcement, source flood protection, and an
// optional viscous delay.
//
// Grounded on doismellburning/samoyed's src/digipeater.go (digipeat_match,
// the WIDEn-N decrement/insert rules) and src/dedupe.go (the recent-packet
// table reused here as both the duplicate check and the flood counter, per
// spec §4.4 step 3's "count keys in recent_packets").
package digipeater

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/n0call/aprsgw/internal/callsign"
	"github.com/n0call/aprsgw/internal/packet"
)

// Reason enumerates why a packet was dropped instead of digipeated.
type Reason string

const (
	ReasonDisabled        Reason = "disabled"
	ReasonDuplicate       Reason = "duplicate"
	ReasonFlooding        Reason = "flooding"
	ReasonACL             Reason = "acl"
	ReasonFiltered        Reason = "filtered"
	ReasonNoMatch         Reason = "no_match"
	ReasonMaxHopsExceeded Reason = "max_hops_exceeded"
)

var errMaxHopsExceeded = errors.New("digipeater: max hops exceeded")

// Outcome is the result of running a packet through the decision pipeline.
type Outcome struct {
	Digipeat bool
	Packet   packet.Packet // valid iff Digipeat
	Deferred bool          // true if queued for viscous delay instead of emitted now
	Reason   Reason        // valid iff !Digipeat && !Deferred
}

// Digipeater owns the recent-packet table and viscous queue for one
// digipeater instance. All state is behind the mutex; callers interact via
// Decide (and the viscous timer calling back through fireViscous), matching the
// "single owner, message-passing" concurrency model of spec §5.
type Digipeater struct {
	cfg Config

	mu      sync.Mutex
	recent  map[string]recentEntry // fingerprint -> last emission
	viscous map[string]*viscousEntry
}

type recentEntry struct {
	source string
	ts     time.Time
}

type viscousEntry struct {
	packet      packet.Packet
	fingerprint string
	timer       *time.Timer
}

func New(cfg Config) *Digipeater {
	return &Digipeater{
		cfg:     cfg,
		recent:  make(map[string]recentEntry),
		viscous: make(map[string]*viscousEntry),
	}
}

func fingerprint(p *packet.Packet) string {
	sum := md5.Sum(p.Data)
	return p.Source + "\x00" + hex.EncodeToString(sum[:])
}

// Decide runs the decision pipeline of spec §4.4 against an RF-received
// packet and returns the outcome. If the packet is deferred for viscous
// delay, emit is invoked later, from the timer goroutine, with the
// rewritten packet — unless a second copy arrives first and cancels it.
func (d *Digipeater) Decide(p packet.Packet, now time.Time, emit func(packet.Packet)) Outcome {
	if !d.cfg.Enabled {
		return Outcome{Reason: ReasonDisabled}
	}

	fp := fingerprint(&p)

	d.mu.Lock()
	if v, queued := d.viscous[fp]; queued {
		v.timer.Stop()
		delete(d.viscous, fp)
		d.mu.Unlock()
		return Outcome{Reason: ReasonDuplicate}
	}
	if entry, ok := d.recent[fp]; ok && now.Sub(entry.ts) <= d.cfg.DedupWindow {
		d.mu.Unlock()
		return Outcome{Reason: ReasonDuplicate}
	}

	if d.cfg.MaxFloodRate > 0 {
		count := 0
		for _, entry := range d.recent {
			if entry.source == p.Source && now.Sub(entry.ts) <= d.cfg.FloodWindow {
				count++
			}
		}
		if count > d.cfg.MaxFloodRate {
			d.mu.Unlock()
			return Outcome{Reason: ReasonFlooding}
		}
	}
	d.mu.Unlock()

	if d.cfg.Blacklist[p.Source] {
		return Outcome{Reason: ReasonACL}
	}
	if len(d.cfg.Whitelist) > 0 && !d.cfg.Whitelist[p.Source] {
		return Outcome{Reason: ReasonACL}
	}

	if (d.cfg.FilterWX && p.Type == packet.Weather) || (d.cfg.FilterTelemetry && p.Type == packet.Telemetry) {
		return Outcome{Reason: ReasonFiltered}
	}

	idx, match, ok := d.findDigipeatPoint(p.Path)
	if !ok {
		return Outcome{Reason: ReasonNoMatch}
	}
	if match.isWT && d.cfg.MaxHops > 0 && match.wt.n > d.cfg.MaxHops {
		return Outcome{Reason: ReasonMaxHopsExceeded}
	}

	rewritten, err := d.rewrite(p, idx, match)
	if err != nil {
		return Outcome{Reason: ReasonMaxHopsExceeded}
	}

	if d.cfg.ViscousDelay > 0 && p.Type.IsPosition() {
		d.queueViscous(fp, rewritten, emit)
		return Outcome{Deferred: true}
	}

	d.record(fp, p.Source, now)
	return Outcome{Digipeat: true, Packet: rewritten}
}

func (d *Digipeater) record(fp, source string, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recent[fp] = recentEntry{source: source, ts: now}
}

func (d *Digipeater) queueViscous(fp string, rewritten packet.Packet, emit func(packet.Packet)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry := &viscousEntry{packet: rewritten, fingerprint: fp}
	entry.timer = time.AfterFunc(d.cfg.ViscousDelay, func() {
		d.fireViscous(fp, emit)
	})
	d.viscous[fp] = entry
}

// fireViscous emits the held packet unless a duplicate cancelled it first.
func (d *Digipeater) fireViscous(fp string, emit func(packet.Packet)) {
	d.mu.Lock()
	entry, ok := d.viscous[fp]
	if ok {
		delete(d.viscous, fp)
	}
	d.mu.Unlock()

	if !ok {
		return // cancelled: a second copy of this fingerprint already arrived
	}

	d.record(fp, entry.packet.Source, time.Now())
	if emit != nil {
		emit(entry.packet)
	}
}

// digipeatPoint describes what the matched path element is, so rewrite()
// doesn't have to re-parse it.
type digipeatPoint struct {
	direct bool // own callsign or alias (non-WIDE/TRACE) match
	wt     wideTrace
	isWT   bool
}

// findDigipeatPoint locates the first unused path element matching the
// configured own-callsign/alias/WIDEn-N/TRACEn-N rules (spec §4.4 step 6).
func (d *Digipeater) findDigipeatPoint(path []packet.PathElement) (int, digipeatPoint, bool) {
	ownBare := callsign.Canonicalize(d.cfg.OwnCall)
	ownFull := callsign.Canonicalize(callsign.WithSSID(d.cfg.OwnCall, d.cfg.OwnSSID))

	aliases := make(map[string]bool, len(d.cfg.Aliases))
	for _, a := range d.cfg.Aliases {
		aliases[callsign.Canonicalize(a)] = true
	}

	for i, e := range path {
		if e.Used {
			continue
		}
		call := callsign.Canonicalize(e.Call)

		if call == ownBare || call == ownFull || aliases[call] {
			return i, digipeatPoint{direct: true}, true
		}

		if wt, ok := parseWideTrace(call); ok {
			if d.cfg.FillIn && !(!wt.trace && wt.n == 1 && wt.hops == 1) {
				continue // fill-in digis only ever consume WIDE1-1
			}
			return i, digipeatPoint{wt: wt, isWT: true}, true
		}
	}
	return 0, digipeatPoint{}, false
}

// rewrite applies the hop-rewriting rules of spec §4.4 at the matched
// index and validates the post-condition (used-hop count <= max_hops).
func (d *Digipeater) rewrite(p packet.Packet, idx int, match digipeatPoint) (packet.Packet, error) {
	out := p.Clone()
	own := packet.PathElement{Call: callsign.WithSSID(d.cfg.OwnCall, d.cfg.OwnSSID), Used: true}

	switch {
	case match.direct:
		out.Path[idx] = own

	case match.isWT && d.cfg.FillIn && !match.wt.trace && match.wt.n == 1 && match.wt.hops == 1:
		// Fill-in digis: insert OWNCALL-SSID* before, set the element itself
		// to "WIDE1*" rather than decrementing it to WIDE1-0.
		out.Path = insertBefore(out.Path, idx, own)
		out.Path[idx+1] = packet.PathElement{Call: "WIDE1", Used: true}

	case match.isWT:
		wt := match.wt
		next, exhausted := wt.decremented()

		// Non-preemptive marks the consumed hop used immediately; preemptive
		// only marks it once the hop budget is actually exhausted. Either
		// way, reaching zero always marks, per spec §4.4.
		markDecremented := exhausted || !d.cfg.Preemptive
		decremented := packet.PathElement{Call: next.String(), Used: markDecremented}
		if exhausted {
			// A fully consumed token drops its zero count: WIDE2-1 becomes WIDE2*.
			decremented.Call = strings.TrimSuffix(next.String(), "-0")
		}

		// TRACEn-N always inserts the own call ahead of the token; WIDEn-N
		// only does so in preemptive mode.
		insertOwn := wt.trace || d.cfg.Preemptive
		if insertOwn {
			out.Path = insertBefore(out.Path, idx, own)
			out.Path[idx+1] = decremented
		} else {
			out.Path[idx] = decremented
		}
	}

	if d.cfg.MaxHops > 0 && out.UsedHopCount() > d.cfg.MaxHops {
		return packet.Packet{}, errMaxHopsExceeded
	}
	return out, nil
}

// insertBefore returns path with el inserted immediately before index idx.
func insertBefore(path []packet.PathElement, idx int, el packet.PathElement) []packet.PathElement {
	out := make([]packet.PathElement, 0, len(path)+1)
	out = append(out, path[:idx]...)
	out = append(out, el)
	out = append(out, path[idx:]...)
	return out
}
