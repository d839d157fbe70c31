// Package qconstruct applies, validates and strips the APRS-IS q-construct
// path element that records how a packet entered the network (spec §4.3).
//
// Grounded on the q-construct handling in doismellburning/samoyed's
// igate.go (the construct is appended on the way RF->IS and validated on
// the way an already-tagged packet is relayed between IS peers).
package qconstruct

import (
	"strings"

	"github.com/n0call/aprsgw/internal/packet"
)

// Code is one of the recognized single-letter q-construct suffixes.
type Code byte

const (
	QAC Code = 'C' // accepted from a verified client login
	QAX Code = 'X' // accepted from an unverified client login
	QAU Code = 'U'
	QAo Code = 'o' // client-only port
	QAO Code = 'O' // client-only port
	QAS Code = 'S' // server-generated
	QAr Code = 'r'
	QAR Code = 'R' // received directly from RF by the attached gateway
	QAZ Code = 'Z'
)

var valid = map[Code]bool{
	QAC: true, QAX: true, QAU: true, QAo: true, QAO: true,
	QAS: true, QAr: true, QAR: true, QAZ: true,
}

// element renders "qA<code>" as a path token.
func element(c Code) string {
	return "qA" + string(byte(c))
}

// Find returns the index of the first q-construct in the path, or -1.
func Find(path []packet.PathElement) int {
	for i, e := range path {
		if e.IsQConstruct() {
			return i
		}
	}
	return -1
}

// codeOf extracts the Code from a validated "qA?" token; ok is false if the
// token isn't a well-formed q-construct at all (IsQConstruct already
// guarantees the "qA" prefix and length, so this just reads the 3rd byte).
func codeOf(e packet.PathElement) (Code, bool) {
	if !e.IsQConstruct() {
		return 0, false
	}
	return Code(e.Call[2]), true
}

// IsWellFormed reports whether a path's existing q-construct (if any) is
// one of the enumerated valid forms.
func IsWellFormed(path []packet.PathElement) bool {
	i := Find(path)
	if i < 0 {
		return true
	}
	c, ok := codeOf(path[i])
	return ok && valid[c]
}

// StripMalformed removes a q-construct element that isn't one of the
// enumerated valid forms (and its following server-call element, since a
// malformed pair can't be trusted to carry useful provenance).
func StripMalformed(path []packet.PathElement) []packet.PathElement {
	i := Find(path)
	if i < 0 {
		return path
	}
	c, ok := codeOf(path[i])
	if ok && valid[c] {
		return path
	}
	out := append([]packet.PathElement(nil), path[:i]...)
	// drop the malformed q-construct and, if present, the server-call
	// element immediately following it
	rest := path[i+1:]
	if len(rest) > 0 {
		rest = rest[1:]
	}
	return append(out, rest...)
}

// Apply annotates a client-submitted packet's path with its q-construct:
// if the path already carries a well-formed one, it's passed through
// unchanged (after stripping any malformed one); otherwise qAC/qAX is
// appended followed by serverCall, per whether the submitting client's
// login was verified.
func Apply(path []packet.PathElement, verified bool, serverCall string) []packet.PathElement {
	clean := StripMalformed(path)
	if Find(clean) >= 0 {
		return clean
	}
	code := QAX
	if verified {
		code = QAC
	}
	return append(append([]packet.PathElement(nil), clean...),
		packet.PathElement{Call: element(code)},
		packet.PathElement{Call: serverCall},
	)
}

// ApplyRF annotates an RF-received packet with qAR,<ownCall> for relay to
// APRS-IS, per spec §4.5.
func ApplyRF(path []packet.PathElement, ownCall string) []packet.PathElement {
	out := append([]packet.PathElement(nil), path...)
	return append(out, packet.PathElement{Call: element(QAR)}, packet.PathElement{Call: ownCall})
}

// StripForRF removes every q-construct element, the server-call element
// immediately following it, and the "TCPIP*" marker from a path, for the
// IS->RF direction (spec §4.3/§4.5, §8 scenario 5: ["WIDE2-1","qAC","SRV"]
// -> ["WIDE2-1"], not ["WIDE2-1","SRV"]).
func StripForRF(path []packet.PathElement) []packet.PathElement {
	out := make([]packet.PathElement, 0, len(path))
	for i := 0; i < len(path); i++ {
		e := path[i]
		if e.Call == "TCPIP" {
			continue
		}
		if strings.HasPrefix(e.Call, "q") {
			i++ // also drop the server-call element that follows
			continue
		}
		out = append(out, e)
	}
	return out
}
