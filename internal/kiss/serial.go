package kiss

import (
	"context"
	"io"

	"github.com/pkg/term"
)

// SerialConfig describes a real or virtual serial port to speak KISS over
// (spec §6), matching the parameters doismellburning/samoyed's
// kissserial_init takes from its misc_config_s.
type SerialConfig struct {
	Port string
	Baud int
}

// SerialPort wraps github.com/pkg/term's Term with the Extractor-based
// frame reassembly used by every KISS transport in this gateway, so the
// serial port and the TCP (kissnet) client share one read loop shape.
type SerialPort struct {
	t *term.Term
	e Extractor
}

// OpenSerial opens cfg.Port at cfg.Baud. A Baud of 0 leaves the port's
// current speed alone, matching the teacher's "0 meaning leave it alone"
// convention for kiss_serial_speed.
func OpenSerial(cfg SerialConfig) (*SerialPort, error) {
	opts := []func(*term.Term) error{}
	if cfg.Baud > 0 {
		opts = append(opts, term.Speed(cfg.Baud))
	}
	t, err := term.Open(cfg.Port, opts...)
	if err != nil {
		return nil, err
	}
	return &SerialPort{t: t}, nil
}

func (s *SerialPort) Close() error {
	return s.t.Close()
}

// WriteFrame writes an already-KISS-framed (FEND-delimited) buffer.
func (s *SerialPort) WriteFrame(framed []byte) error {
	_, err := s.t.Write(framed)
	return err
}

// ReadLoop reads from the serial port until ctx is cancelled or the port
// errors, invoking onFrame with each decoded AX.25 payload (channel, cmd,
// payload already un-escaped via Decode).
func (s *SerialPort) ReadLoop(ctx context.Context, onFrame func(channel, cmd byte, payload []byte)) error {
	buf := make([]byte, 1024)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n, err := s.t.Read(buf)
		if n > 0 {
			for _, framed := range s.e.Feed(buf[:n]) {
				if ch, cmd, payload, ok := Decode(framed); ok {
					onFrame(ch, cmd, payload)
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}
