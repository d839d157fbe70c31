// Package ax25 encodes and decodes AX.25 address fields: the 7-byte,
// shift-left-one callsign+SSID representation carried inside every KISS
// data frame (spec §6).
//
// Grounded on doismellburning/samoyed's ax25_pad.go (the address field
// layout: six shifted-left callsign bytes followed by an SSID byte whose
// low bit marks the last address in the field), reworked as plain
// functions over []byte instead of the teacher's frame_data accumulator.
package ax25

import (
	"strings"

	"github.com/n0call/aprsgw/internal/callsign"
)

// SSID byte bit layout (spec §6, matching the teacher's SSID_H_MASK /
// SSID_LAST_MASK constants).
const (
	ssidHMask    = 0x80 // has-been-repeated / command bit
	ssidReserved = 0x60 // always-1 reserved bits
	ssidShift    = 1
	ssidLastMask = 0x01 // set on the final address field in a frame
)

// EncodeAddress renders one callsign-SSID pair as a 7-byte AX.25 address
// field. last marks it as the final address (the source, in a frame with
// no digipeater path); hBit sets the has-been-repeated/command bit.
func EncodeAddress(call string, ssid int, last, hBit bool) []byte {
	base := callsign.Base(callsign.Canonicalize(call))
	padded := (base + "      ")[:6]

	out := make([]byte, 7)
	for i := 0; i < 6; i++ {
		out[i] = padded[i] << 1
	}

	b := byte(ssid&0x0f) << ssidShift
	b |= ssidReserved
	if hBit {
		b |= ssidHMask
	}
	if last {
		b |= ssidLastMask
	}
	out[6] = b
	return out
}

// DecodeAddress parses one 7-byte AX.25 address field, returning the
// callsign, SSID, whether it is the last address field, and the
// has-been-repeated/command bit.
func DecodeAddress(field []byte) (call string, ssid int, last, hBit bool, ok bool) {
	if len(field) < 7 {
		return "", 0, false, false, false
	}
	var b strings.Builder
	for i := 0; i < 6; i++ {
		c := field[i] >> 1
		if c == ' ' {
			continue
		}
		b.WriteByte(c)
	}
	call = strings.TrimRight(b.String(), " ")
	ssid = int(field[6]>>ssidShift) & 0x0f
	last = field[6]&ssidLastMask != 0
	hBit = field[6]&ssidHMask != 0
	return call, ssid, last, hBit, true
}

// EncodeFrame renders a full address field block (destination, source,
// then the digipeater path) followed by the control/PID bytes and the
// information field, i.e. a complete AX.25 UI frame ready for KISS framing.
func EncodeFrame(destCall string, destSSID int, srcCall string, srcSSID int, path []PathAddr, info []byte) []byte {
	var addrs [][]byte
	addrs = append(addrs, EncodeAddress(destCall, destSSID, false, false))
	addrs = append(addrs, EncodeAddress(srcCall, srcSSID, len(path) == 0, false))
	for i, p := range path {
		addrs = append(addrs, EncodeAddress(p.Call, p.SSID, i == len(path)-1, p.HBit))
	}

	out := make([]byte, 0, len(addrs)*7+2+len(info))
	for _, a := range addrs {
		out = append(out, a...)
	}
	out = append(out, 0x03, 0xf0) // UI control byte, no-layer-3 PID
	out = append(out, info...)
	return out
}

// PathAddr is one digipeater path entry for EncodeFrame/DecodeFrame.
type PathAddr struct {
	Call string
	SSID int
	HBit bool // has this repeater already digipeated the frame
}

// DecodeFrame parses a complete AX.25 UI frame into its destination,
// source, path, and information field.
func DecodeFrame(frame []byte) (destCall string, destSSID int, srcCall string, srcSSID int, path []PathAddr, info []byte, ok bool) {
	if len(frame) < 14 {
		return "", 0, "", 0, nil, nil, false
	}

	destCall, destSSID, _, _, ok = DecodeAddress(frame[0:7])
	if !ok {
		return
	}
	var last bool
	srcCall, srcSSID, last, _, ok = DecodeAddress(frame[7:14])
	if !ok {
		return
	}

	offset := 14
	for !last {
		if offset+7 > len(frame) {
			return "", 0, "", 0, nil, nil, false
		}
		call, ssid, isLast, hBit, decOK := DecodeAddress(frame[offset : offset+7])
		if !decOK {
			return "", 0, "", 0, nil, nil, false
		}
		path = append(path, PathAddr{Call: call, SSID: ssid, HBit: hBit})
		last = isLast
		offset += 7
	}

	if offset+2 > len(frame) {
		return "", 0, "", 0, nil, nil, false
	}
	info = frame[offset+2:] // skip control + PID
	return destCall, destSSID, srcCall, srcSSID, path, info, true
}
