// Package packet implements the APRS text-wire codec: parsing a raw line
// into a structured Packet, re-encoding it, classifying its type, and
// extracting a position when one is present.
//
// Grounded on doismellburning/samoyed's ax25_pad.go (address/path model)
// and decode_aprs.go (type-indicator dispatch), reworked as plain Go value
// types instead of a cgo packet_t handle.
package packet

import (
	"strings"
	"time"
)

// Type enumerates the APRS data-type classes this gateway understands.
type Type int

const (
	Unknown Type = iota
	PositionNoTimestamp
	PositionWithTimestamp
	PositionWithTimestampMsg
	PositionCompressed
	Message
	Status
	Object
	Item
	MicE
	Weather
	Telemetry
	Query
	Bulletin
	UserDefined
	ThirdParty
	RawGPS
)

// IsPosition reports whether t is one of the position-bearing classes.
func (t Type) IsPosition() bool {
	switch t {
	case PositionNoTimestamp, PositionWithTimestamp, PositionWithTimestampMsg, PositionCompressed, MicE, Object, Item:
		return true
	default:
		return false
	}
}

func (t Type) String() string {
	switch t {
	case PositionNoTimestamp:
		return "position_no_ts"
	case PositionWithTimestamp:
		return "position_with_ts"
	case PositionWithTimestampMsg:
		return "position_with_ts_msg"
	case PositionCompressed:
		return "position_compressed"
	case Message:
		return "message"
	case Status:
		return "status"
	case Object:
		return "object"
	case Item:
		return "item"
	case MicE:
		return "mic_e"
	case Weather:
		return "weather"
	case Telemetry:
		return "telemetry"
	case Query:
		return "query"
	case Bulletin:
		return "bulletin"
	case UserDefined:
		return "user_defined"
	case ThirdParty:
		return "third_party"
	case RawGPS:
		return "raw_gps"
	default:
		return "unknown"
	}
}

// PathElement is one hop of the digipeater path: a callsign or alias,
// optionally marked "used" (trailing '*').
type PathElement struct {
	Call string
	Used bool
}

func ParsePathElement(s string) PathElement {
	if strings.HasSuffix(s, "*") {
		return PathElement{Call: s[:len(s)-1], Used: true}
	}
	return PathElement{Call: s}
}

func (e PathElement) String() string {
	if e.Used {
		return e.Call + "*"
	}
	return e.Call
}

// IsQConstruct reports whether the element is a q-construct token (qAx).
func (e PathElement) IsQConstruct() bool {
	return len(e.Call) == 3 && e.Call[0] == 'q' && e.Call[1] == 'A'
}

// Position is a decoded latitude/longitude pair, in signed decimal degrees.
type Position struct {
	Latitude  float64
	Longitude float64
}

// Packet is the central parsed representation of one APRS frame.
type Packet struct {
	Source      string
	Destination string
	Path        []PathElement
	Data        []byte
	Type        Type
	Timestamp   time.Time

	position    *Position
	positionSet bool
	addressee   string
	addresseeSet bool
}

// Position lazily decodes and caches the packet's position, if any.
func (p *Packet) Position() (Position, bool) {
	if !p.positionSet {
		pos, ok := extractPosition(p.Type, p.Data)
		if ok {
			p.position = &pos
		}
		p.positionSet = true
	}
	if p.position == nil {
		return Position{}, false
	}
	return *p.position, true
}

// Addressee lazily extracts the message recipient callsign for Message-type
// packets, e.g. ":KC0ABC   :hi" -> "KC0ABC".
func (p *Packet) Addressee() (string, bool) {
	if !p.addresseeSet {
		p.addressee, _ = extractAddressee(p.Type, p.Data)
		p.addresseeSet = true
	}
	return p.addressee, p.addressee != ""
}

// IsThirdParty reports whether the information field is a third-party
// wrapped packet (data begins with '}').
func (p *Packet) IsThirdParty() bool {
	return len(p.Data) > 0 && p.Data[0] == '}'
}

// Unwrap recovers the inner packet from a third-party-wrapped packet's data
// field. The wire form is "}SRC>DST,PATH:DATA" following the leading '}'.
func (p *Packet) Unwrap() (Packet, error) {
	if !p.IsThirdParty() {
		return Packet{}, ErrNotThirdParty
	}
	return Parse(string(p.Data[1:]))
}

// UsedHopCount returns the number of path elements marked "used" (trailing '*').
func (p *Packet) UsedHopCount() int {
	n := 0
	for _, e := range p.Path {
		if e.Used {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of p suitable for mutation (e.g. digipeat
// rewrite) without aliasing the original's Path slice or Data bytes.
func (p *Packet) Clone() Packet {
	cp := *p
	cp.Path = append([]PathElement(nil), p.Path...)
	cp.Data = append([]byte(nil), p.Data...)
	cp.position = nil
	cp.positionSet = false
	cp.addressee = ""
	cp.addresseeSet = false
	return cp
}
