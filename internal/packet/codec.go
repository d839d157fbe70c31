package packet

import (
	"strings"
)

// Parse decodes one APRS text line into a Packet. The raw line's trailing
// CRLF (or LF) is trimmed; everything else, including 8-bit data bytes, is
// preserved verbatim in Data.
//
// Grounded on doismellburning/samoyed's ax25_from_text (src/ax25_pad.go):
// split on the first ':' into header/data, then the header on '>' and ','.
func Parse(raw string) (Packet, error) {
	line := strings.TrimRight(raw, "\r\n")

	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return Packet{}, ErrInvalidFormat
	}
	header := line[:colon]
	data := line[colon+1:]

	gt := strings.IndexByte(header, '>')
	if gt < 0 {
		return Packet{}, ErrInvalidHeader
	}
	source := header[:gt]
	rest := header[gt+1:]

	fields := strings.Split(rest, ",")
	destination := fields[0]
	if destination == "" {
		return Packet{}, ErrInvalidHeader
	}

	var path []PathElement
	for _, f := range fields[1:] {
		if f == "" {
			continue
		}
		path = append(path, ParsePathElement(f))
	}

	p := Packet{
		Source:      callsignCanonicalize(source),
		Destination: callsignCanonicalize(destination),
		Path:        path,
		Data:        []byte(data),
	}
	p.Type = classify(p.Data)
	refineType(&p)
	return p, nil
}

// refineType distinguishes sub-classes that the first-byte table alone
// can't: a Message addressed to a "BLN*" identifier is a Bulletin.
func refineType(p *Packet) {
	if p.Type != Message {
		return
	}
	addressee, ok := extractAddressee(p.Type, p.Data)
	if ok && strings.HasPrefix(addressee, "BLN") {
		p.Type = Bulletin
	}
}

// Encode renders a Packet back to its wire form, without a trailing CRLF.
// For any Packet produced by Parse without subsequent mutation, Encode
// reproduces the original line exactly (round trip, spec §8).
func Encode(p Packet) string {
	var b strings.Builder
	b.WriteString(p.Source)
	b.WriteByte('>')
	b.WriteString(p.Destination)
	for _, e := range p.Path {
		b.WriteByte(',')
		b.WriteString(e.String())
	}
	b.WriteByte(':')
	b.Write(p.Data)
	return b.String()
}

// Canonicalize trims CRLF and normalizes the line the way Parse/Encode
// would reproduce it (path separators are already ',' on the wire, so this
// is just whitespace trimming per spec §8).
//
// Note: Parse upper-cases Source/Destination via callsignCanonicalize below,
// but Canonicalize does not touch case. The spec §8 round trip
// encode(parse(L)) == canonicalize(L) therefore only holds for L whose
// source/destination are already upper-case; a lowercase-source input
// parses and re-encodes upper-cased, which is the correct wire behavior
// (APRS callsigns are case-insensitive and conventionally upper-case) but
// isn't byte-identical to a Canonicalize that only trims.
func Canonicalize(raw string) string {
	return strings.TrimRight(raw, "\r\n")
}

// callsignCanonicalize upper-cases without validating; Parse is liberal and
// leaves validation to callers that need it (the gating policies do).
func callsignCanonicalize(s string) string {
	return strings.ToUpper(s)
}

// classify determines the packet Type from the first byte of the
// information field, per the APRS type-indicator table.
func classify(data []byte) Type {
	if len(data) == 0 {
		return Unknown
	}
	if data[0] == '}' {
		return ThirdParty
	}
	switch data[0] {
	case '!':
		return PositionNoTimestamp
	case '=':
		return PositionNoTimestamp
	case '/':
		return PositionWithTimestamp
	case '@':
		return PositionWithTimestampMsg
	case '\'', '`':
		return MicE
	case ':':
		return Message
	case '>':
		return Status
	case ';':
		return Object
	case ')':
		return Item
	case '?':
		return Query
	case 'T':
		return Telemetry
	case '_':
		return Weather
	case '$':
		return RawGPS
	case '{':
		return UserDefined
	default:
		return Unknown
	}
}
