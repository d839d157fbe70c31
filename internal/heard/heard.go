// Package heard tracks recently-heard RF stations, split into direct and
// indirect (digipeated) sightings (spec §4.5 "Heard tracking").
//
// Promoted to its own package — mirroring doismellburning/samoyed's
// separation of src/mheard.go from src/igate.go — so the RF gate's
// reachability checks and any future operator-facing "mheard" query share
// one owner instead of each RF-gate instance keeping its own table.
package heard

import (
	"sync"
	"time"
)

// DefaultWindow is the spec §4.5 default heard-record eviction window.
const DefaultWindow = 600 * time.Second

// Table tracks last-seen times for directly and indirectly heard stations.
type Table struct {
	window time.Duration

	mu       sync.Mutex
	direct   map[string]time.Time
	indirect map[string]time.Time
}

func New(window time.Duration) *Table {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Table{
		window:   window,
		direct:   make(map[string]time.Time),
		indirect: make(map[string]time.Time),
	}
}

// Record updates the heard record for call, as direct or indirect.
func (t *Table) Record(call string, direct bool, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if direct {
		t.direct[call] = now
	} else {
		t.indirect[call] = now
	}
}

// IsHeard reports whether call was heard (directly or indirectly) within
// the window as of now.
func (t *Table) IsHeard(call string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ts, ok := t.direct[call]; ok && now.Sub(ts) <= t.window {
		return true
	}
	if ts, ok := t.indirect[call]; ok && now.Sub(ts) <= t.window {
		return true
	}
	return false
}

// IsHeardDirect reports whether call was heard directly within the window.
func (t *Table) IsHeardDirect(call string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	ts, ok := t.direct[call]
	return ok && now.Sub(ts) <= t.window
}

// Sweep evicts entries older than the window. Called periodically from the
// owning task's timer loop, as with dedupe.Filter.
func (t *Table) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	evicted := 0
	for call, ts := range t.direct {
		if now.Sub(ts) > t.window {
			delete(t.direct, call)
			evicted++
		}
	}
	for call, ts := range t.indirect {
		if now.Sub(ts) > t.window {
			delete(t.indirect, call)
			evicted++
		}
	}
	return evicted
}

// Snapshot returns a point-in-time copy of both tables, for operator
// queries or stats reporting without holding the lock across I/O.
type Snapshot struct {
	Direct   map[string]time.Time
	Indirect map[string]time.Time
}

func (t *Table) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{
		Direct:   make(map[string]time.Time, len(t.direct)),
		Indirect: make(map[string]time.Time, len(t.indirect)),
	}
	for k, v := range t.direct {
		s.Direct[k] = v
	}
	for k, v := range t.indirect {
		s.Indirect[k] = v
	}
	return s
}

// Lookup reports the last-seen time for call and whether it's a direct
// sighting, if heard at all.
func (t *Table) Lookup(call string) (lastSeen time.Time, direct bool, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ts, found := t.direct[call]; found {
		return ts, true, true
	}
	if ts, found := t.indirect[call]; found {
		return ts, false, true
	}
	return time.Time{}, false, false
}
