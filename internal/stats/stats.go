// Package stats maintains the coordinator's packet counters (spec §4.11)
// and exposes them both as an in-process read-only snapshot and as
// Prometheus metrics.
//
// Grounded on runZeroInc-conniver/sockstats's use of
// github.com/prometheus/client_golang for connection/request counters —
// the closest analogue in the example pack to a gateway's packet
// counters — adapted here to the rf/is/digipeat counter set spec §4.11
// names explicitly.
package stats

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Counters holds the spec §4.11 stats fields.
type Counters struct {
	RFRx       uint64
	RFTx       uint64
	ISRx       uint64
	ISTx       uint64
	Digipeated uint64
	GatedToRF  uint64
	GatedToIS  uint64
}

// Stats owns the live counters; every increment is a single atomic add, so
// it may be called concurrently from every reader task per spec §5.
type Stats struct {
	rfRx, rfTx             uint64
	isRx, isTx             uint64
	digipeated             uint64
	gatedToRF, gatedToIS   uint64

	promRFRx, promRFTx         prometheus.Counter
	promISRx, promISTx         prometheus.Counter
	promDigipeated             prometheus.Counter
	promGatedToRF, promGatedToIS prometheus.Counter
}

// New constructs a Stats and registers its Prometheus counters with reg.
// Passing nil for reg skips registration (useful in tests).
func New(reg prometheus.Registerer) *Stats {
	s := &Stats{
		promRFRx:       newCounter("aprsgw_rf_rx_total", "Packets received on RF interfaces."),
		promRFTx:       newCounter("aprsgw_rf_tx_total", "Packets transmitted on RF interfaces."),
		promISRx:       newCounter("aprsgw_is_rx_total", "Packets received from APRS-IS."),
		promISTx:       newCounter("aprsgw_is_tx_total", "Packets transmitted to APRS-IS."),
		promDigipeated: newCounter("aprsgw_digipeated_total", "Packets digipeated back onto RF."),
		promGatedToRF:  newCounter("aprsgw_gated_to_rf_total", "Packets gated from APRS-IS onto RF."),
		promGatedToIS:  newCounter("aprsgw_gated_to_is_total", "Packets gated from RF onto APRS-IS."),
	}
	if reg != nil {
		reg.MustRegister(s.promRFRx, s.promRFTx, s.promISRx, s.promISTx,
			s.promDigipeated, s.promGatedToRF, s.promGatedToIS)
	}
	return s
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
}

func (s *Stats) IncRFRx()       { atomic.AddUint64(&s.rfRx, 1); s.promRFRx.Inc() }
func (s *Stats) IncRFTx()       { atomic.AddUint64(&s.rfTx, 1); s.promRFTx.Inc() }
func (s *Stats) IncISRx()       { atomic.AddUint64(&s.isRx, 1); s.promISRx.Inc() }
func (s *Stats) IncISTx()       { atomic.AddUint64(&s.isTx, 1); s.promISTx.Inc() }
func (s *Stats) IncDigipeated() { atomic.AddUint64(&s.digipeated, 1); s.promDigipeated.Inc() }
func (s *Stats) IncGatedToRF()  { atomic.AddUint64(&s.gatedToRF, 1); s.promGatedToRF.Inc() }
func (s *Stats) IncGatedToIS()  { atomic.AddUint64(&s.gatedToIS, 1); s.promGatedToIS.Inc() }

// Snapshot returns a point-in-time copy of every counter.
func (s *Stats) Snapshot() Counters {
	return Counters{
		RFRx:       atomic.LoadUint64(&s.rfRx),
		RFTx:       atomic.LoadUint64(&s.rfTx),
		ISRx:       atomic.LoadUint64(&s.isRx),
		ISTx:       atomic.LoadUint64(&s.isTx),
		Digipeated: atomic.LoadUint64(&s.digipeated),
		GatedToRF:  atomic.LoadUint64(&s.gatedToRF),
		GatedToIS:  atomic.LoadUint64(&s.gatedToIS),
	}
}
