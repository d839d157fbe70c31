// Package callsign validates and canonicalizes amateur-radio callsigns and
// the callsign-like tokens (tocalls, aliases) that appear in an APRS path.
package callsign

import (
	"strconv"
	"strings"
)

const (
	MinSSID = 0
	MaxSSID = 15
)

// Valid reports whether s is a syntactically valid callsign or tocall:
// 1-6 alphanumeric characters containing at least one letter, with an
// optional "-SSID" suffix where SSID is in [0,15].
func Valid(s string) bool {
	base, _, hasSSID := splitSSID(s)
	if !validBase(base) {
		return false
	}
	if hasSSID {
		_, ok := parseSSID(s)
		if !ok {
			return false
		}
	}
	return true
}

func validBase(base string) bool {
	if len(base) < 1 || len(base) > 6 {
		return false
	}
	hasLetter := false
	for _, r := range base {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
			hasLetter = true
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return hasLetter
}

func splitSSID(s string) (base string, ssidPart string, hasSSID bool) {
	idx := strings.IndexByte(s, '-')
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+1:], true
}

func parseSSID(s string) (int, bool) {
	_, ssidPart, has := splitSSID(s)
	if !has {
		return 0, false
	}
	n, err := strconv.Atoi(ssidPart)
	if err != nil || n < MinSSID || n > MaxSSID {
		return 0, false
	}
	return n, true
}

// Canonicalize upper-cases a callsign for internal storage and comparison.
// Input case is not significant per the wire format.
func Canonicalize(s string) string {
	return strings.ToUpper(s)
}

// Base returns the callsign without its SSID suffix, e.g. "N0CALL-9" -> "N0CALL".
func Base(s string) string {
	base, _, _ := splitSSID(s)
	return base
}

// SSID returns the numeric SSID of s, or 0 if absent or malformed.
func SSID(s string) int {
	n, ok := parseSSID(s)
	if !ok {
		return 0
	}
	return n
}

// WithSSID renders base-ssid, e.g. WithSSID("DIGI", 1) -> "DIGI-1". An ssid
// of 0 is rendered bare.
func WithSSID(base string, ssid int) string {
	if ssid == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(ssid)
}
