package digipeater

import (
	"strconv"
	"strings"
)

// wideTrace is a parsed WIDEn-N or TRACEn-N path token.
type wideTrace struct {
	trace bool // TRACE vs WIDE
	n     int  // the digit immediately after WIDE/TRACE
	hops  int  // the remaining-hops count after the dash
}

// parseWideTrace recognizes "WIDEn-N" and "TRACEn-N" tokens, n in [1,7],
// N in [1,n] (spec §4.4). Returns ok=false for anything else, including
// malformed hop counts.
func parseWideTrace(call string) (wideTrace, bool) {
	var prefix string
	var trace bool
	switch {
	case strings.HasPrefix(call, "WIDE"):
		prefix = "WIDE"
	case strings.HasPrefix(call, "TRACE"):
		prefix = "TRACE"
		trace = true
	default:
		return wideTrace{}, false
	}

	rest := call[len(prefix):]
	dash := strings.IndexByte(rest, '-')
	if dash != 1 {
		// exactly one digit must precede the dash
		return wideTrace{}, false
	}
	n, err := strconv.Atoi(rest[:1])
	if err != nil || n < 1 || n > 7 {
		return wideTrace{}, false
	}
	hopsStr := rest[2:]
	if hopsStr == "" {
		return wideTrace{}, false
	}
	hops, err := strconv.Atoi(hopsStr)
	if err != nil || hops < 1 || hops > n {
		return wideTrace{}, false
	}
	return wideTrace{trace: trace, n: n, hops: hops}, true
}

func (w wideTrace) String() string {
	prefix := "WIDE"
	if w.trace {
		prefix = "TRACE"
	}
	return prefix + strconv.Itoa(w.n) + "-" + strconv.Itoa(w.hops)
}

// decremented returns the token with its remaining-hops count reduced by
// one, and whether it has reached zero (meaning the element becomes used
// rather than being rewritten to a new WIDEn-(N-1) token).
func (w wideTrace) decremented() (wideTrace, bool) {
	w.hops--
	return w, w.hops <= 0
}
