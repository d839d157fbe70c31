// Package history implements the bounded FIFO ring of recently observed
// packets used to replay a short backlog to newly-subscribed clients
// (spec §4.9).
package history

import (
	"sync"
	"time"

	"github.com/lestrrat-go/strftime"

	"github.com/n0call/aprsgw/internal/filter"
	"github.com/n0call/aprsgw/internal/packet"
)

// DefaultCapacity is the spec §4.9 default ring size.
const DefaultCapacity = 10000

// Slot pairs a recorded packet with its arrival time.
type Slot struct {
	Packet  packet.Packet
	Arrived time.Time
}

// Buffer is a capacity-bounded FIFO ring of Slots.
type Buffer struct {
	capacity int

	mu    sync.Mutex
	slots []Slot // logical order: oldest first
}

// New constructs a Buffer with the given capacity (spec default 10000).
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		slots:    make([]Slot, 0, capacity),
	}
}

// Record appends p, evicting the oldest slot if the buffer is full.
func (b *Buffer) Record(p packet.Packet, arrived time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.slots) >= b.capacity {
		// Evict oldest in place to avoid reallocating on every insert.
		copy(b.slots, b.slots[1:])
		b.slots = b.slots[:len(b.slots)-1]
	}
	b.slots = append(b.slots, Slot{Packet: p, Arrived: arrived})
}

// Query returns, in insertion order, up to limit most-recently-recorded
// packets matching f that arrived strictly after since.
func (b *Buffer) Query(f filter.Filter, since time.Time, limit int) []Slot {
	b.mu.Lock()
	candidates := make([]Slot, len(b.slots))
	copy(candidates, b.slots)
	b.mu.Unlock()

	var matched []Slot
	for _, s := range candidates {
		if !s.Arrived.After(since) {
			continue
		}
		p := s.Packet
		if !f.Match(&p) {
			continue
		}
		matched = append(matched, s)
	}

	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched
}

// Len reports the current number of slots held.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.slots)
}

// DebugLine renders one human-readable listing line for a slot, using the
// same strftime pattern vocabulary the teacher's daily-log-file naming
// uses (src/log.go), for an operator-facing debug dump of the ring.
func DebugLine(s Slot) (string, error) {
	f, err := strftime.New("%Y-%m-%d %H:%M:%S")
	if err != nil {
		return "", err
	}
	return f.FormatString(s.Arrived) + " " + packet.Encode(s.Packet), nil
}
