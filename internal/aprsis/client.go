// Package aprsis implements an APRS-IS TCP client: login, keepalive,
// auto-reconnect with backoff, and line-delimited packet exchange (spec
// §4.6).
//
// Grounded on doismellburning/samoyed's igate.go (the login line format,
// the connection state machine, and the keepalive cadence), rewritten
// around a plain net.Conn instead of the teacher's cgo socket wrapper.
// Logging follows the teacher's verbosity style via charmbracelet/log, a
// dependency shared with [[coordinator]].
package aprsis

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// State is the client's connection lifecycle state (spec §4.6).
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// KeepaliveInterval is the spec §4.6 default keepalive cadence.
const KeepaliveInterval = 60 * time.Second

// Config holds the parameters of one APRS-IS server connection.
type Config struct {
	Addr       string // "host:port"
	Callsign   string
	Passcode   int // -1 for read-only/unverified login
	Filter     string
	AppName    string
	AppVersion string

	InitialBackoff time.Duration // default 5s
	MaxBackoff     time.Duration // default 5m
}

// Client maintains one APRS-IS TCP connection, reconnecting with backoff on
// failure, and delivers received lines to the configured handler. The
// mutex guards the connection state and the current connection/writer,
// which Send and the keepalive loop share with the Run goroutine.
type Client struct {
	cfg Config
	log *log.Logger

	mu    sync.Mutex
	state State

	conn net.Conn
	w    *bufio.Writer
}

func New(cfg Config, logger *log.Logger) *Client {
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 5 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Minute
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{cfg: cfg, log: logger.With("component", "aprsis")}
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func loginLine(cfg Config) string {
	filter := ""
	if cfg.Filter != "" {
		filter = " filter " + cfg.Filter
	}
	return fmt.Sprintf("user %s pass %d vers %s %s%s",
		cfg.Callsign, cfg.Passcode, cfg.AppName, cfg.AppVersion, filter)
}

// Run connects, logs in, and processes lines from the server until ctx is
// cancelled, reconnecting with exponential backoff on any failure. onLine
// is invoked for every non-comment line received; onLine must not block.
func (c *Client) Run(ctx context.Context, onLine func(line string)) error {
	backoff := c.cfg.InitialBackoff
	for {
		if ctx.Err() != nil {
			c.setState(Disconnected)
			return ctx.Err()
		}

		err := c.runOnce(ctx, onLine)
		c.setState(Disconnected)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.log.Warn("aprs-is connection lost, reconnecting", "addr", c.cfg.Addr, "backoff", backoff, "err", err)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
		if backoff > c.cfg.MaxBackoff {
			backoff = c.cfg.MaxBackoff
		}
	}
}

func (c *Client) runOnce(ctx context.Context, onLine func(line string)) error {
	c.setState(Connecting)

	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	c.mu.Lock()
	c.conn = conn
	c.w = bufio.NewWriter(conn)
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.conn, c.w = nil, nil
		c.mu.Unlock()
	}()

	if _, err := fmt.Fprintf(c.w, "%s\r\n", loginLine(c.cfg)); err != nil {
		return err
	}
	if err := c.w.Flush(); err != nil {
		return err
	}

	c.setState(Connected)
	c.log.Info("aprs-is connected", "addr", c.cfg.Addr, "call", c.cfg.Callsign)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.keepaliveLoop(ctx, conn)
	}()
	defer func() { <-done }()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), 64*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		onLine(line)
	}
	return scanner.Err()
}

func (c *Client) keepaliveLoop(ctx context.Context, conn net.Conn) {
	ticker := time.NewTicker(KeepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			conn.Close()
			return
		case <-ticker.C:
			c.mu.Lock()
			_, err := fmt.Fprintf(c.w, "# keepalive\r\n")
			if err == nil {
				err = c.w.Flush()
			}
			c.mu.Unlock()
			if err != nil {
				conn.Close()
				return
			}
		}
	}
}

// Send writes a raw line (without trailing CRLF) to the current connection,
// if any. It is a no-op, returning nil, when disconnected — callers that
// must know whether a send succeeded should check State first.
func (c *Client) Send(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.w == nil {
		return nil
	}
	if _, err := fmt.Fprintf(c.w, "%s\r\n", line); err != nil {
		return err
	}
	return c.w.Flush()
}
