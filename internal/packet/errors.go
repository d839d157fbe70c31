package packet

import "errors"

// Parse-time errors, per spec §7's parse-error taxonomy. These are always
// logged at debug and counted; never propagated to a wire peer.
var (
	ErrInvalidFormat   = errors.New("packet: invalid format (no ':' separating header and data)")
	ErrInvalidHeader   = errors.New("packet: invalid header (no '>' or empty destination)")
	ErrInvalidCallsign = errors.New("packet: invalid callsign")
	ErrInvalidPosition = errors.New("packet: invalid position")
	ErrNotThirdParty   = errors.New("packet: not a third-party wrapped packet")
)
