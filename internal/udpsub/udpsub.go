// Package udpsub implements the UDP packet-submission listener (spec §6):
// a datagram may carry a literal APRS text line, a raw KISS data frame, or
// a JSON object, and invalid datagrams are dropped silently.
//
// Grounded on doismellburning/samoyed's kissutil.go (the teacher's own
// "accept a frame from wherever, normalize it, hand it to the core" entry
// point) for the overall shape; the JSON submission form has no teacher
// analogue and is built from spec §6's literal grammar directly.
package udpsub

import (
	"encoding/json"
	"net"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/n0call/aprsgw/internal/ax25"
	"github.com/n0call/aprsgw/internal/kiss"
	"github.com/n0call/aprsgw/internal/packet"
)

// jsonSubmission is the shape of form (c) in spec §6.
type jsonSubmission struct {
	Source      string   `json:"source"`
	Destination string   `json:"destination,omitempty"`
	Path        []string `json:"path,omitempty"`
	Data        string   `json:"data"`
}

// Listener owns one UDP socket accepting submissions.
type Listener struct {
	conn *net.UDPConn
	log  *log.Logger
}

func Listen(addr string, logger *log.Logger) (*Listener, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Listener{conn: conn, log: logger.With("component", "udpsub")}, nil
}

func (l *Listener) Close() error {
	return l.conn.Close()
}

// Serve reads datagrams until the socket is closed, decoding each per the
// three accepted forms and invoking onPacket with the result. Malformed
// datagrams are dropped with a debug log, never returned as an error.
func (l *Listener) Serve(onPacket func(packet.Packet)) error {
	buf := make([]byte, 65535)
	for {
		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			return err
		}
		p, ok := decode(buf[:n])
		if !ok {
			l.log.Debug("dropped invalid udp submission", "len", n)
			continue
		}
		onPacket(p)
	}
}

func decode(datagram []byte) (packet.Packet, bool) {
	if len(datagram) == 0 {
		return packet.Packet{}, false
	}

	if datagram[0] == kiss.FEND {
		return decodeKISS(datagram)
	}
	if datagram[0] == '{' {
		return decodeJSON(datagram)
	}
	return decodeLine(datagram)
}

func decodeLine(datagram []byte) (packet.Packet, bool) {
	p, err := packet.Parse(string(datagram))
	if err != nil {
		return packet.Packet{}, false
	}
	return p, true
}

func decodeKISS(datagram []byte) (packet.Packet, bool) {
	var e kiss.Extractor
	frames := e.Feed(datagram)
	if len(frames) == 0 {
		return packet.Packet{}, false
	}
	_, cmd, payload, ok := kiss.Decode(frames[0])
	if !ok || cmd != kiss.CmdDataFrame {
		return packet.Packet{}, false
	}

	destCall, destSSID, srcCall, srcSSID, path, info, ok := ax25.DecodeFrame(payload)
	if !ok {
		return packet.Packet{}, false
	}

	var elems []packet.PathElement
	for _, pa := range path {
		call := pa.Call
		if pa.SSID != 0 {
			call = call + "-" + strconv.Itoa(pa.SSID)
		}
		elems = append(elems, packet.PathElement{Call: call, Used: pa.HBit})
	}

	dest := destCall
	if destSSID != 0 {
		dest = dest + "-" + strconv.Itoa(destSSID)
	}
	src := srcCall
	if srcSSID != 0 {
		src = src + "-" + strconv.Itoa(srcSSID)
	}

	p, err := packet.Parse(src + ">" + dest + pathSuffix(elems) + ":" + string(info))
	if err != nil {
		return packet.Packet{}, false
	}
	return p, true
}

func pathSuffix(elems []packet.PathElement) string {
	s := ""
	for _, e := range elems {
		s += "," + e.String()
	}
	return s
}

func decodeJSON(datagram []byte) (packet.Packet, bool) {
	var sub jsonSubmission
	if err := json.Unmarshal(datagram, &sub); err != nil {
		return packet.Packet{}, false
	}
	if sub.Source == "" || sub.Data == "" {
		return packet.Packet{}, false
	}
	dest := sub.Destination
	if dest == "" {
		dest = "APRS"
	}
	line := sub.Source + ">" + dest
	for _, hop := range sub.Path {
		line += "," + hop
	}
	line += ":" + sub.Data

	p, err := packet.Parse(line)
	if err != nil {
		return packet.Packet{}, false
	}
	return p, true
}
