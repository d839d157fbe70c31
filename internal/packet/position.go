package packet

import (
	"bytes"
	"strconv"
)

// extractPosition decodes a position from a position-class packet's data
// field. Both the uncompressed degrees-minutes form and the compressed
// base-91 form are supported on the read path, per spec §4.1/§9.
func extractPosition(t Type, data []byte) (Position, bool) {
	if !t.IsPosition() {
		return Position{}, false
	}
	if len(data) == 0 {
		return Position{}, false
	}

	body := data[1:] // skip the type-indicator byte

	switch t {
	case PositionWithTimestamp, PositionWithTimestampMsg:
		if len(body) < 7 {
			return Position{}, false
		}
		body = body[7:] // DDHHMMz / HHMMSSh timestamp
	case Object:
		if len(body) < 17 {
			return Position{}, false
		}
		body = body[17:] // 9-byte name, live/killed flag, 7-byte timestamp
	case Item:
		i := bytes.IndexAny(body, "!_")
		if i < 3 {
			return Position{}, false
		}
		body = body[i+1:] // 3-9 byte name, live/killed flag
	case MicE:
		return Position{}, false // Mic-E latitude is carried in the destination; not decoded here
	}

	if len(body) == 0 {
		return Position{}, false
	}

	if isCompressed(body) {
		return decodeCompressed(body)
	}
	return decodeUncompressed(body)
}

// isCompressed reports whether body begins with a compressed-position
// symbol-table byte (any non-digit), which precedes 4 base-91 latitude
// bytes and 4 base-91 longitude bytes, as opposed to the uncompressed
// "DDMM.mmN/..." textual form.
func isCompressed(body []byte) bool {
	if len(body) < 9 {
		return false
	}
	// The uncompressed form always has a digit in position 0; the
	// compressed form's symbol-table selector never does.
	return body[0] < '0' || body[0] > '9'
}

// decodeUncompressed parses "DDMM.mm{N|S}/DDDMM.mm{E|W}" followed by a
// symbol-code byte and an optional free-text comment. The latitude token
// is always 8 bytes (2-digit degrees); the longitude token always 9 bytes
// (3-digit degrees); a literal '/' symbol-table selector separates them.
func decodeUncompressed(body []byte) (Position, bool) {
	const latLen = 8
	const lonLen = 9
	if len(body) < latLen+1+lonLen {
		return Position{}, false
	}
	if body[latLen] != '/' {
		return Position{}, false
	}

	lat, ok := parseDM(body[:latLen], 2)
	if !ok {
		return Position{}, false
	}

	lon, ok := parseDM(body[latLen+1:latLen+1+lonLen], 3)
	if !ok {
		return Position{}, false
	}

	return Position{Latitude: lat, Longitude: lon}, true
}

// parseDM parses a degrees-minutes-hemisphere token with degWidth digits of
// degrees, e.g. parseDM("3553.50N", 2) -> 35.891666..., parseDM("10602.50W", 3).
func parseDM(s []byte, degWidth int) (float64, bool) {
	if len(s) < degWidth+5 {
		return 0, false
	}
	hemi := s[len(s)-1]
	numPart := s[:len(s)-1]

	degStr := string(numPart[:degWidth])
	minStr := string(numPart[degWidth:])

	deg, err := strconv.ParseFloat(degStr, 64)
	if err != nil {
		return 0, false
	}
	min, err := strconv.ParseFloat(minStr, 64)
	if err != nil {
		return 0, false
	}

	value := deg + min/60
	switch hemi {
	case 'S', 's', 'W', 'w':
		value = -value
	case 'N', 'n', 'E', 'e':
	default:
		return 0, false
	}
	return value, true
}

// decodeCompressed parses the base-91 compressed position format: a
// symbol-table byte, 4 latitude bytes, 4 longitude bytes, then the symbol.
//
//	lat = 90 - ((b0-33)*91^3 + (b1-33)*91^2 + (b2-33)*91 + (b3-33)) / 380926
//	lon = -180 + ((b0-33)*91^3 + (b1-33)*91^2 + (b2-33)*91 + (b3-33)) / 190463
func decodeCompressed(body []byte) (Position, bool) {
	if len(body) < 9 {
		return Position{}, false
	}
	latBytes := body[1:5]
	lonBytes := body[5:9]

	for _, b := range latBytes {
		if b < 33 || b > 123 {
			return Position{}, false
		}
	}
	for _, b := range lonBytes {
		if b < 33 || b > 123 {
			return Position{}, false
		}
	}

	latVal := base91Value(latBytes)
	lonVal := base91Value(lonBytes)

	lat := 90 - float64(latVal)/380926
	lon := -180 + float64(lonVal)/190463

	return Position{Latitude: lat, Longitude: lon}, true
}

func base91Value(b []byte) int {
	return int(b[0]-33)*91*91*91 + int(b[1]-33)*91*91 + int(b[2]-33)*91 + int(b[3]-33)
}

// extractAddressee recovers the addressee of a Message/Bulletin packet:
// ":KC0ABC   :hi" -> "KC0ABC". The addressee field is 9 characters,
// space-padded, followed by ':'.
func extractAddressee(t Type, data []byte) (string, bool) {
	if t != Message && t != Bulletin {
		return "", false
	}
	if len(data) < 1 || data[0] != ':' {
		return "", false
	}
	body := data[1:]
	colon := bytes.IndexByte(body, ':')
	if colon < 0 {
		return "", false
	}
	field := body[:colon]
	addressee := trimTrailingSpaces(field)
	if addressee == "" {
		return "", false
	}
	return addressee, true
}

func trimTrailingSpaces(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == ' ' {
		end--
	}
	return string(b[:end])
}
