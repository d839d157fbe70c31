// Package broker implements the downstream APRS-IS-compatible server: it
// accepts client TCP connections, verifies their login line, tags and
// broadcasts packets to clients whose filter matches, and replays a short
// packet history to newly-connected clients (spec §4.7).
//
// Grounded on doismellburning/samoyed's server.go (the per-client
// goroutine-pair pattern: one reader, one writer fed by a buffered
// channel, disconnecting a client whose writer falls behind) and igate.go
// (the login-line grammar reused here for downstream clients instead of
// upstream APRS-IS). Session IDs use rs/xid, already part of the stack via
// [[runZeroInc-conniver/sockstats]]'s use of the same package for request
// IDs; SO_REUSEPORT on the listener uses golang.org/x/sys/unix the same
// way the teacher's kissnet.go reaches for platform syscalls directly
// rather than through a higher-level wrapper.
package broker

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rs/xid"
	"golang.org/x/sys/unix"

	"github.com/n0call/aprsgw/internal/acl"
	"github.com/n0call/aprsgw/internal/callsign"
	"github.com/n0call/aprsgw/internal/filter"
	"github.com/n0call/aprsgw/internal/history"
	"github.com/n0call/aprsgw/internal/packet"
	"github.com/n0call/aprsgw/internal/qconstruct"
)

// OutboxCapacity bounds how many unwritten lines a client's outbox may
// accumulate before the broker considers it unresponsive and disconnects
// it (spec §4.7 "backpressure disconnect").
const OutboxCapacity = 256

// HistoryReplayPace is the minimum interval between replayed history
// lines sent to a newly-connected client, so a large backlog doesn't
// arrive as one burst ahead of live traffic.
const HistoryReplayPace = 2 * time.Millisecond

// LoginTimeout bounds how long a newly-accepted connection has to send its
// login line before being dropped (spec §5 "accept-to-login: 30 s").
const LoginTimeout = 30 * time.Second

// Config is the broker's static configuration.
type Config struct {
	Addr       string
	ServerCall string
	AppName    string
	AppVersion string
	ReusePort  bool
}

// Server owns the client set, the shared ACL policy, and the history
// buffer. Per spec §5, the client set is the only cross-goroutine shared
// state and is guarded by mu; each client's own fields are touched only by
// that client's reader/writer goroutines.
type Server struct {
	cfg     Config
	policy  *acl.Policy
	history *history.Buffer
	log     *log.Logger

	mu      sync.Mutex
	clients map[xid.ID]*client
}

func New(cfg Config, policy *acl.Policy, hist *history.Buffer, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		cfg:     cfg,
		policy:  policy,
		history: hist,
		log:     logger.With("component", "broker"),
		clients: make(map[xid.ID]*client),
	}
}

type client struct {
	id       xid.ID
	conn     net.Conn
	call     string
	verified bool
	filter   filter.Filter
	outbox   chan string
	connAt   time.Time
}

// listenConfig applies SO_REUSEPORT/SO_REUSEADDR to the listening socket
// when cfg.ReusePort is set, so a broker instance can be restarted without
// waiting out TIME_WAIT — the same reason direwolf's kissnet.go sets
// SO_REUSEADDR on its own listening sockets.
func (s *Server) listenConfig() net.ListenConfig {
	if !s.cfg.ReusePort {
		return net.ListenConfig{}
	}
	return net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
}

// Serve accepts connections until ctx is cancelled. broadcast is fed by the
// caller (the coordinator) via Broadcast; Serve itself only runs the accept
// loop.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := s.listenConfig().Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.log.Info("broker listening", "addr", s.cfg.Addr)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		go s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	host, _, _ := net.SplitHostPort(conn.RemoteAddr().String())

	// Server banner sent immediately on accept, before the login line is
	// even read (spec §6 "Server banner").
	fmt.Fprintf(conn, "# %s %s\r\n", s.cfg.AppName, s.cfg.AppVersion)

	conn.SetReadDeadline(time.Now().Add(LoginTimeout))
	reader := bufio.NewReader(conn)

	loginLine, err := reader.ReadString('\n')
	if err != nil {
		return
	}
	conn.SetReadDeadline(time.Time{})

	call, passcode, _, _, flt, ok := parseLogin(loginLine)
	if !ok || !callsign.Valid(call) {
		fmt.Fprintf(conn, "# logresp %s invalid, server %s\r\n", call, s.cfg.ServerCall)
		return
	}

	now := time.Now()
	if !s.policy.AllowConnect(host, call, now) {
		fmt.Fprintf(conn, "# logresp %s unverified, server %s\r\n", call, s.cfg.ServerCall)
		return
	}

	verified := passcode >= 0 && passcode == Passcode(call)

	c := &client{
		id:       xid.New(),
		conn:     conn,
		call:     call,
		verified: verified,
		filter:   flt,
		outbox:   make(chan string, OutboxCapacity),
		connAt:   now,
	}

	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, c.id)
		s.mu.Unlock()
	}()

	verifiedWord := "unverified"
	if verified {
		verifiedWord = "verified"
	}
	fmt.Fprintf(conn, "# logresp %s %s, server %s\r\n", call, verifiedWord, s.cfg.ServerCall)
	s.log.Info("client connected", "call", call, "verified", verified, "addr", host)

	go s.replayHistory(ctx, c)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(ctx, c)
	}()

	// Downstream clients may submit their own packets (spec §4.7): the read
	// loop applies qAC/qAX tagging and broadcasts them via handleSubmission.
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), 64*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !s.policy.AllowSend(call, len(line), time.Now()) {
			break
		}
		s.handleSubmission(c, line)
	}

	close(c.outbox)
	<-writerDone
	s.log.Info("client disconnected", "call", call)
}

// handleSubmission parses and re-tags a client-submitted line, then
// broadcasts it to the broker's own clients. Submitted packets are not
// passed on to RF or to upstream APRS-IS.
func (s *Server) handleSubmission(c *client, line string) {
	p, err := packet.Parse(line)
	if err != nil {
		return
	}
	p.Path = qconstruct.Apply(p.Path, c.verified, s.cfg.ServerCall)
	s.Broadcast(p)
}

func (s *Server) writeLoop(ctx context.Context, c *client) {
	for {
		select {
		case line, ok := <-c.outbox:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(c.conn, "%s\r\n", line); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) replayHistory(ctx context.Context, c *client) {
	since := c.connAt.Add(-24 * time.Hour)
	slots := s.history.Query(c.filter, since, 0)
	for _, slot := range slots {
		select {
		case <-ctx.Done():
			return
		case <-time.After(HistoryReplayPace):
		}
		s.deliver(c, packet.Encode(slot.Packet))
	}
}

// Broadcast sends p to every connected client whose filter matches,
// disconnecting any client whose outbox is full instead of blocking (spec
// §4.7 "backpressure disconnect").
func (s *Server) Broadcast(p packet.Packet) {
	line := packet.Encode(p)

	s.mu.Lock()
	targets := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	for _, c := range targets {
		pp := p
		if !c.filter.Match(&pp) {
			continue
		}
		s.deliver(c, line)
	}
}

func (s *Server) deliver(c *client, line string) {
	select {
	case c.outbox <- line:
	default:
		s.log.Warn("client outbox full, disconnecting", "call", c.call)
		c.conn.Close()
	}
}

// ClientCount reports the number of currently connected clients, for stats
// reporting (spec §4.11).
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// parseLogin parses a downstream client's login line:
//
//	user CALLSIGN pass PASSCODE vers APPNAME APPVERS filter FILTERSTRING
func parseLogin(line string) (call string, passcode int, appName, appVersion string, flt filter.Filter, ok bool) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) < 4 || fields[0] != "user" || fields[2] != "pass" {
		return "", 0, "", "", nil, false
	}
	call = strings.ToUpper(fields[1])
	passcode, err := strconv.Atoi(fields[3])
	if err != nil {
		passcode = -1
	}

	for i := 4; i < len(fields); i++ {
		switch fields[i] {
		case "vers":
			if i+2 < len(fields) {
				appName, appVersion = fields[i+1], fields[i+2]
				i += 2
			}
		case "filter":
			if i+1 < len(fields) {
				flt, _ = filter.Parse(strings.Join(fields[i+1:], " "))
				i = len(fields)
			}
		}
	}
	return call, passcode, appName, appVersion, flt, true
}
