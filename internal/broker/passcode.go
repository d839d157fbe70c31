package broker

import "strings"

// Passcode computes the classic APRS-IS login passcode for call, the
// 15-bit XOR-hash every APRS-IS server and client has used since the
// network's early Perl/Java servers to give the owner of a callsign a way
// to prove it without a real authentication system. -1 means "no
// passcode" (read-only/unverified login), matching what callers pass
// through as -1 in a login line.
func Passcode(call string) int {
	base := strings.ToUpper(call)
	if idx := strings.IndexByte(base, '-'); idx >= 0 {
		base = base[:idx]
	}

	hash := 0x73e2
	for i := 0; i < len(base); i += 2 {
		hash ^= int(base[i]) << 8
		if i+1 < len(base) {
			hash ^= int(base[i+1])
		}
	}
	return hash & 0x7fff
}
