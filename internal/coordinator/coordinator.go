// Package coordinator wires every component together (spec §4.11):
// configuration, the active interface set (APRS-IS client, RF interfaces,
// downstream broker, UDP submitters), the per-direction routing pipelines
// of spec §2, periodic beaconing, and stats aggregation.
//
// Grounded on doismellburning/samoyed's main.go (the single top-level
// object owning every subsystem and dispatching each received packet
// through digipeat/igate in turn) and dns_sd.go (optional service
// advertisement, reused here for the broker's listening port instead of
// a KISS-over-TCP port). Task supervision uses golang.org/x/sync/errgroup,
// mirroring the teacher's one-thread-per-endpoint model but expressed as
// goroutines supervised by a single error group instead of pthreads.
package coordinator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/n0call/aprsgw/internal/acl"
	"github.com/n0call/aprsgw/internal/aprsis"
	"github.com/n0call/aprsgw/internal/ax25"
	"github.com/n0call/aprsgw/internal/broker"
	"github.com/n0call/aprsgw/internal/callsign"
	"github.com/n0call/aprsgw/internal/config"
	"github.com/n0call/aprsgw/internal/dedupe"
	"github.com/n0call/aprsgw/internal/digipeater"
	"github.com/n0call/aprsgw/internal/heard"
	"github.com/n0call/aprsgw/internal/history"
	"github.com/n0call/aprsgw/internal/kiss"
	"github.com/n0call/aprsgw/internal/packet"
	"github.com/n0call/aprsgw/internal/rfgate"
	"github.com/n0call/aprsgw/internal/stats"
	"github.com/n0call/aprsgw/internal/udpsub"
)

// RFInterface is anything the coordinator can transmit a KISS-framed AX.25
// frame to; kiss.SerialPort and kiss.NetPort (a TCP KISS client) satisfy it.
// Received frames reach the coordinator separately, through ServeRFInterface.
type RFInterface interface {
	WriteFrame(framed []byte) error
}

// Coordinator owns every subsystem instance for one running gateway.
type Coordinator struct {
	cfg config.Config
	log *log.Logger

	dedupe     *dedupe.Filter
	digipeater *digipeater.Digipeater
	rfgate     *rfgate.Gate
	heard      *heard.Table
	acl        *acl.Policy
	history    *history.Buffer
	broker     *broker.Server
	aprsisCli  *aprsis.Client
	stats      *stats.Stats

	rfInterfaces []RFInterface
}

// New builds every component from cfg, applying the Open-Questions-resolved
// defaults each package exposes. Attach a Stats instance afterward with
// SetStats.
func New(cfg config.Config, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.Default()
	}

	heardTable := heard.New(heard.DefaultWindow)
	aclPolicy := acl.New()
	hist := history.New(history.DefaultCapacity)

	digiCfg := digipeater.DefaultConfig(cfg.Digipeater.Callsign, cfg.Digipeater.SSID)
	digiCfg.Aliases = cfg.Digipeater.Aliases
	if cfg.Digipeater.MaxHops > 0 {
		digiCfg.MaxHops = cfg.Digipeater.MaxHops
	}
	if cfg.Digipeater.DedupWindowMS > 0 {
		digiCfg.DedupWindow = time.Duration(cfg.Digipeater.DedupWindowMS) * time.Millisecond
	}
	if cfg.Digipeater.FloodWindowMS > 0 {
		digiCfg.FloodWindow = time.Duration(cfg.Digipeater.FloodWindowMS) * time.Millisecond
	}
	digiCfg.MaxFloodRate = cfg.Digipeater.MaxFloodRate
	digiCfg.ViscousDelay = time.Duration(cfg.Digipeater.ViscousDelayMS) * time.Millisecond
	digiCfg.FillIn = cfg.Digipeater.FillIn
	digiCfg.Preemptive = cfg.Digipeater.Preemptive

	rfCfg := rfgate.Config{
		Enabled:           cfg.RFGate.RFToIS || cfg.RFGate.ISToRF,
		OwnCall:           callsign.WithSSID(cfg.Digipeater.Callsign, cfg.Digipeater.SSID),
		RangeLimitKm:      cfg.RFGate.LocalRangeKm,
		HasPosition:       cfg.Beacon.HasFix,
		Latitude:          cfg.Beacon.Latitude,
		Longitude:         cfg.Beacon.Longitude,
		GateMessages:      cfg.RFGate.GateMessages,
		GatePositions:     cfg.RFGate.GatePositions,
		GateWeather:       cfg.RFGate.GateWeather,
		GateTelemetry:     cfg.RFGate.GateTelemetry,
		GateObjects:       cfg.RFGate.GateObjects,
		MaxRFRate:         cfg.RFGate.MaxRFRate,
		MaxHopsToRF:       cfg.RFGate.MaxHopsToRF,
		IGateMessagesOnly: cfg.RFGate.ISToRFType == "message_only",
	}

	brokerCfg := broker.Config{
		Addr:       fmt.Sprintf(":%d", cfg.Server.Port),
		ServerCall: callsign.WithSSID(cfg.Digipeater.Callsign, cfg.Digipeater.SSID),
		AppName:    cfg.APRSIS.Software,
		AppVersion: cfg.APRSIS.Version,
		ReusePort:  true,
	}

	aprsisCfg := aprsis.Config{
		Addr:       fmt.Sprintf("%s:%d", cfg.APRSIS.Server, cfg.APRSIS.Port),
		Callsign:   cfg.APRSIS.Callsign,
		Passcode:   cfg.APRSIS.Passcode,
		Filter:     cfg.APRSIS.Filter,
		AppName:    cfg.APRSIS.Software,
		AppVersion: cfg.APRSIS.Version,
	}

	return &Coordinator{
		cfg:        cfg,
		log:        logger,
		dedupe:     dedupe.New(dedupe.DefaultWindow),
		digipeater: digipeater.New(digiCfg),
		rfgate:     rfgate.New(rfCfg, heardTable),
		heard:      heardTable,
		acl:        aclPolicy,
		history:    hist,
		broker:     broker.New(brokerCfg, aclPolicy, hist, logger),
		aprsisCli:  aprsis.New(aprsisCfg, logger),
	}
}

// SetStats attaches the stats aggregator once constructed (kept separate
// from New so callers can choose whether/how to wire a Prometheus
// registry without complicating the constructor signature).
func (c *Coordinator) SetStats(s *stats.Stats) {
	c.stats = s
}

// Stats returns the live stats snapshot (spec §4.11 "read-only snapshot").
func (c *Coordinator) Stats() stats.Counters {
	if c.stats == nil {
		return stats.Counters{}
	}
	return c.stats.Snapshot()
}

// Run starts every background task (APRS-IS client, broker listener,
// sweep timers, beacon timer) and blocks until ctx is cancelled or a
// component fails unrecoverably.
func (c *Coordinator) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c.dedupe.Run(dedupe.DefaultSweepInterval, gctx.Done())
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(heard.DefaultWindow)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case t := <-ticker.C:
				c.heard.Sweep(t)
			}
		}
	})

	if c.cfg.APRSIS.Server != "" {
		g.Go(func() error {
			return c.aprsisCli.Run(gctx, c.handleAPRSISLine)
		})
	}

	g.Go(func() error {
		return c.broker.Serve(gctx)
	})

	if c.cfg.UDP.Addr != "" {
		g.Go(func() error {
			return c.runUDPSub(gctx)
		})
	}

	if c.cfg.Beacon.IntervalSeconds > 0 {
		g.Go(func() error {
			return c.runBeacon(gctx)
		})
	}

	if c.cfg.Advertise {
		g.Go(func() error {
			if err := c.advertise(gctx); err != nil && gctx.Err() == nil {
				c.log.Warn("dns-sd: advertisement failed", "err", err)
			}
			return nil
		})
	}

	return g.Wait()
}

// handleAPRSISLine routes one line received from the upstream APRS-IS
// server through the dedup filter, RF gate, history, and broker, per the
// IS-origin branch of spec §2's data-flow.
func (c *Coordinator) handleAPRSISLine(line string) {
	p, err := packet.Parse(line)
	if err != nil {
		return
	}
	if c.stats != nil {
		c.stats.IncISRx()
	}

	now := time.Now()
	if c.dedupe.IsDuplicate(p.Source, p.Data, now) {
		return
	}
	c.dedupe.Record(p.Source, p.Data, now)

	c.history.Record(p, now)
	c.broker.Broadcast(p)

	rf, reason := c.rfgate.GateISToRF(p, now)
	if reason == rfgate.ReasonOK {
		c.transmitRF(rf)
		if c.stats != nil {
			c.stats.IncGatedToRF()
		}
	}
}

// HandleRFPacket routes one packet received from an RF interface through
// the digipeater and RF gate, per the RF-origin branch of spec §2. emit is
// called (possibly asynchronously, for a viscously-delayed digipeat) with
// each frame that should be retransmitted on RF.
func (c *Coordinator) HandleRFPacket(p packet.Packet, satellitePath bool, emit func(packet.Packet)) {
	if c.stats != nil {
		c.stats.IncRFRx()
	}
	now := time.Now()

	c.rfgate.ObserveRF(&p, now)

	if c.dedupe.IsDuplicate(p.Source, p.Data, now) {
		return
	}
	c.dedupe.Record(p.Source, p.Data, now)

	c.history.Record(p, now)
	c.broker.Broadcast(p)

	outcome := c.digipeater.Decide(p, now, func(rewritten packet.Packet) {
		emit(rewritten)
		if c.stats != nil {
			c.stats.IncDigipeated()
			c.stats.IncRFTx()
		}
	})
	if outcome.Digipeat {
		emit(outcome.Packet)
		if c.stats != nil {
			c.stats.IncDigipeated()
			c.stats.IncRFTx()
		}
	}

	gated, reason := c.rfgate.GateRFToIS(p, satellitePath, now)
	if reason == rfgate.ReasonOK {
		if err := c.aprsisCli.Send(packet.Encode(gated)); err == nil && c.stats != nil {
			c.stats.IncGatedToIS()
			c.stats.IncISTx()
		}
	}
}

// PacketFromAX25 decodes one AX.25 UI frame (as handed up by a KISS reader,
// spec §6) into the Packet it carries, reconstructing the APRS text line
// from the address fields and information field and running it through the
// same Parse the text transports use, so every origin produces an
// identically-shaped Packet regardless of whether it arrived as text or as
// an AX.25 frame.
func PacketFromAX25(frame []byte) (packet.Packet, bool) {
	destCall, destSSID, srcCall, srcSSID, path, info, ok := ax25.DecodeFrame(frame)
	if !ok {
		return packet.Packet{}, false
	}

	var b strings.Builder
	b.WriteString(callsign.WithSSID(srcCall, srcSSID))
	b.WriteByte('>')
	b.WriteString(callsign.WithSSID(destCall, destSSID))
	for _, e := range path {
		b.WriteByte(',')
		b.WriteString(callsign.WithSSID(e.Call, e.SSID))
		if e.HBit {
			b.WriteByte('*')
		}
	}
	b.WriteByte(':')
	b.Write(info)

	p, err := packet.Parse(b.String())
	if err != nil {
		return packet.Packet{}, false
	}
	return p, true
}

// ServeRFInterface runs a KISS reader's ReadLoop-shaped feed until ctx is
// cancelled, decoding every data frame into a Packet and routing it through
// HandleRFPacket, emitting any digipeat/gate output back out emit.
func (c *Coordinator) ServeRFInterface(ctx context.Context, readLoop func(context.Context, func(channel, cmd byte, payload []byte)) error, emit func(packet.Packet)) error {
	return readLoop(ctx, func(channel, cmd byte, payload []byte) {
		if cmd != kiss.CmdDataFrame {
			return
		}
		p, ok := PacketFromAX25(payload)
		if !ok {
			return
		}
		c.HandleRFPacket(p, false, emit)
	})
}

func (c *Coordinator) transmitRF(p packet.Packet) {
	path := make([]ax25.PathAddr, 0, len(p.Path))
	for _, e := range p.Path {
		path = append(path, ax25.PathAddr{Call: callsign.Base(e.Call), SSID: callsign.SSID(e.Call), HBit: e.Used})
	}
	frame := ax25.EncodeFrame(callsign.Base(p.Destination), callsign.SSID(p.Destination),
		callsign.Base(p.Source), callsign.SSID(p.Source), path, p.Data)
	framed := kiss.Encode(0, kiss.CmdDataFrame, frame)
	for _, iface := range c.rfInterfaces {
		_ = iface.WriteFrame(framed)
	}
}

// TransmitRF sends p to every registered RF interface (spec §2's
// "Digipeat may emit a modified copy back to RF"), exposed so a caller
// wiring an interface's read loop via ServeRFInterface can reuse it as the
// emit callback.
func (c *Coordinator) TransmitRF(p packet.Packet) {
	c.transmitRF(p)
}

// AddRFInterface registers an outbound RF interface for digipeat/gate
// retransmission.
func (c *Coordinator) AddRFInterface(iface RFInterface) {
	c.rfInterfaces = append(c.rfInterfaces, iface)
}

func (c *Coordinator) runUDPSub(ctx context.Context) error {
	l, err := udpsub.Listen(c.cfg.UDP.Addr, c.log)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		l.Close()
	}()
	return l.Serve(func(p packet.Packet) {
		c.HandleRFPacket(p, false, c.transmitRF)
	})
}

// runBeacon periodically constructs and sends a position-or-status beacon
// per spec §4.11, to every RF interface and, if configured, to APRS-IS.
func (c *Coordinator) runBeacon(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(c.cfg.Beacon.IntervalSeconds) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p := c.buildBeacon()
			c.transmitRF(p)
			if c.cfg.APRSIS.Server != "" {
				_ = c.aprsisCli.Send(packet.Encode(p))
			}
		}
	}
}

func (c *Coordinator) buildBeacon() packet.Packet {
	own := callsign.WithSSID(c.cfg.Digipeater.Callsign, c.cfg.Digipeater.SSID)
	var data string
	if c.cfg.Beacon.HasFix {
		symTable, symCode := c.cfg.Beacon.Symbol[:1], c.cfg.Beacon.Symbol[1:2]
		data = fmt.Sprintf("!%s%s%s%s%s",
			formatLat(c.cfg.Beacon.Latitude), symTable,
			formatLon(c.cfg.Beacon.Longitude), symCode,
			c.cfg.Beacon.Comment)
	} else {
		data = ">no fix " + c.cfg.Beacon.Comment
	}
	line := own + ">APRS:" + data
	p, err := packet.Parse(line)
	if err != nil {
		return packet.Packet{Source: own, Destination: "APRS", Data: []byte(data)}
	}
	return p
}

func formatLat(lat float64) string {
	hemi := "N"
	if lat < 0 {
		hemi = "S"
		lat = -lat
	}
	deg := int(lat)
	min := (lat - float64(deg)) * 60
	return fmt.Sprintf("%02d%05.2f%s", deg, min, hemi)
}

func formatLon(lon float64) string {
	hemi := "E"
	if lon < 0 {
		hemi = "W"
		lon = -lon
	}
	deg := int(lon)
	min := (lon - float64(deg)) * 60
	return fmt.Sprintf("%03d%05.2f%s", deg, min, hemi)
}

// advertise announces the broker's listening port via DNS-SD/mDNS, so LAN
// clients can discover it without a typed-in address, the same
// announce-once responder pattern the teacher's dns_sd.go uses for its
// KISS-over-TCP port.
func (c *Coordinator) advertise(ctx context.Context) error {
	svcCfg := dnssd.Config{
		Name: callsign.WithSSID(c.cfg.Digipeater.Callsign, c.cfg.Digipeater.SSID),
		Type: "_aprs-is._tcp",
		Port: c.cfg.Server.Port,
	}
	sv, err := dnssd.NewService(svcCfg)
	if err != nil {
		return err
	}
	rp, err := dnssd.NewResponder()
	if err != nil {
		return err
	}
	if _, err := rp.Add(sv); err != nil {
		return err
	}
	c.log.Info("dns-sd: announcing broker", "port", c.cfg.Server.Port)
	return rp.Respond(ctx)
}
