// Package filter parses APRS-IS filter strings (spec §4.8) and evaluates
// them against a packet. A filter is an ordered list of predicates that
// matches a packet if any element matches (OR semantics, the wire-format
// contract APRS-IS clients rely on).
package filter

import (
	"strconv"
	"strings"

	"github.com/n0call/aprsgw/internal/geo"
	"github.com/n0call/aprsgw/internal/packet"
)

// Element is one filter predicate.
type Element interface {
	Match(p *packet.Packet) bool
}

// Filter is an ordered, OR-matched list of Elements.
type Filter []Element

// Match reports whether any element of f matches p. An empty filter
// matches everything (spec §4.8: "empty/whitespace-only filter = match-all").
func (f Filter) Match(p *packet.Packet) bool {
	if len(f) == 0 {
		return true
	}
	for _, e := range f {
		if e.Match(p) {
			return true
		}
	}
	return false
}

// Range matches packets within km of (Lat, Lon), per the Haversine distance.
type Range struct {
	Lat, Lon, Km float64
}

func (r Range) Match(p *packet.Packet) bool {
	pos, ok := p.Position()
	if !ok {
		return false
	}
	return geo.DistanceKm(r.Lat, r.Lon, pos.Latitude, pos.Longitude) <= r.Km
}

// Prefix matches if the packet's source starts with any of Prefixes.
type Prefix struct {
	Prefixes []string
}

func (pf Prefix) Match(p *packet.Packet) bool {
	for _, pre := range pf.Prefixes {
		if strings.HasPrefix(p.Source, pre) {
			return true
		}
	}
	return false
}

// Budlist matches an exact source, destination, or path-element callsign.
type Budlist struct {
	Calls []string
}

func (b Budlist) Match(p *packet.Packet) bool {
	for _, c := range b.Calls {
		if p.Source == c || p.Destination == c {
			return true
		}
		for _, e := range p.Path {
			if e.Call == c {
				return true
			}
		}
	}
	return false
}

// TypeSet matches packets whose classification belongs to the set.
type TypeSet struct {
	Position, Object, Item, Message, Query, Status, Telemetry, Weather, NWS, UserDefined bool
}

func (ts TypeSet) Match(p *packet.Packet) bool {
	switch p.Type {
	case packet.PositionNoTimestamp, packet.PositionWithTimestamp, packet.PositionWithTimestampMsg, packet.PositionCompressed, packet.MicE:
		return ts.Position
	case packet.Object:
		return ts.Object
	case packet.Item:
		return ts.Item
	case packet.Message, packet.Bulletin:
		return ts.Message
	case packet.Query:
		return ts.Query
	case packet.Status:
		return ts.Status
	case packet.Telemetry:
		return ts.Telemetry
	case packet.Weather:
		return ts.Weather
	case packet.UserDefined:
		return ts.UserDefined
	default:
		return false
	}
}

// Symbol matches position-class packets whose data contains any byte listed
// in Symbols. The symbol field is not located: any byte of the raw data
// counts, so this is a best-effort check rather than a decoded symbol match.
type Symbol struct {
	Symbols []byte
}

func (s Symbol) Match(p *packet.Packet) bool {
	if !p.Type.IsPosition() || len(p.Data) == 0 {
		return false
	}
	for _, sym := range s.Symbols {
		for _, b := range p.Data {
			if b == sym {
				return true
			}
		}
	}
	return false
}

// Object matches Object-type packets whose name appears in Names.
type Object struct {
	Names []string
}

func (o Object) Match(p *packet.Packet) bool {
	if p.Type != packet.Object || len(p.Data) < 10 {
		return false
	}
	name := strings.TrimRight(string(p.Data[1:10]), " ")
	for _, n := range o.Names {
		if name == n {
			return true
		}
	}
	return false
}

// Parse splits an APRS-IS filter string on whitespace and parses each
// "type/args" token into an Element. Unknown token types are dropped
// silently, matching the wire protocol's forward-compatibility rule.
func Parse(s string) (Filter, error) {
	var out Filter
	for _, tok := range strings.Fields(s) {
		el, ok, err := parseToken(tok)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, el)
		}
	}
	return out, nil
}

func parseToken(tok string) (Element, bool, error) {
	parts := strings.Split(tok, "/")
	if len(parts) < 2 {
		return nil, false, nil
	}
	kind, args := parts[0], parts[1:]

	switch kind {
	case "r":
		if len(args) != 3 {
			return nil, false, errInvalid(tok)
		}
		lat, err1 := strconv.ParseFloat(args[0], 64)
		lon, err2 := strconv.ParseFloat(args[1], 64)
		km, err3 := strconv.ParseFloat(args[2], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, false, errInvalid(tok)
		}
		return Range{Lat: lat, Lon: lon, Km: km}, true, nil

	case "p":
		return Prefix{Prefixes: args}, true, nil

	case "b":
		return Budlist{Calls: args}, true, nil

	case "t":
		if len(args) != 1 {
			return nil, false, errInvalid(tok)
		}
		return parseTypeSet(args[0]), true, nil

	case "s":
		return Symbol{Symbols: []byte(strings.Join(args, ""))}, true, nil

	case "o":
		return Object{Names: args}, true, nil

	default:
		return nil, false, nil
	}
}

func parseTypeSet(chars string) TypeSet {
	var ts TypeSet
	for _, c := range chars {
		switch c {
		case 'p':
			ts.Position = true
		case 'o':
			ts.Object = true
		case 'i':
			ts.Item = true
		case 'm':
			ts.Message = true
		case 'q':
			ts.Query = true
		case 's':
			ts.Status = true
		case 't':
			ts.Telemetry = true
		case 'w':
			ts.Weather = true
		case 'n':
			ts.NWS = true
		case 'u':
			ts.UserDefined = true
		}
	}
	return ts
}

func errInvalid(tok string) error {
	return &ParseError{Token: tok}
}

// ParseError reports a malformed filter token whose type was recognized but
// whose arguments could not be parsed (e.g. non-numeric "r/..." fields).
type ParseError struct {
	Token string
}

func (e *ParseError) Error() string {
	return "filter: invalid token " + strconv.Quote(e.Token)
}
