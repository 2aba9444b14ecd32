package dht

import "errors"

// Errors returned by Read, wrapped in *ReadError.
var (
	ErrHandshakeTimeout = errors.New("dht: handshake timeout")
	ErrPulseTimeout     = errors.New("dht: pulse timeout")
	ErrChecksumMismatch = errors.New("dht: checksum mismatch")
)

// ErrorKind classifies a failed read.
type ErrorKind uint8

const (
	HandshakeTimeout ErrorKind = iota + 1
	PulseTimeout
	ChecksumMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case HandshakeTimeout:
		return "handshake_timeout"
	case PulseTimeout:
		return "pulse_timeout"
	case ChecksumMismatch:
		return "checksum_mismatch"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case HandshakeTimeout:
		return ErrHandshakeTimeout
	case PulseTimeout:
		return ErrPulseTimeout
	case ChecksumMismatch:
		return ErrChecksumMismatch
	default:
		return nil
	}
}

// Stage is where in the transaction a read failed.
type Stage uint8

const (
	StageWaitAck  Stage = iota // line never pulled low after the start pulse
	StageAckLow                // acknowledgment low phase
	StageAckHigh               // acknowledgment high phase
	StageData                  // data bit capture
	StageChecksum              // frame validation
)

var stageNames = [...]string{"wait_ack", "ack_low", "ack_high", "data", "checksum"}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "unknown"
}

// ReadError carries the failure kind and where it happened.
// Bit is the data bit index, or -1 for handshake failures.
type ReadError struct {
	Kind  ErrorKind
	Stage Stage
	Bit   int
	Frame Frame // partial frame at the point of failure
}

func (e *ReadError) Error() string {
	msg := e.Kind.sentinel().Error() + " (" + e.Stage.String()
	if e.Bit >= 0 {
		msg += " bit " + itoa(e.Bit)
	}
	return msg + ")"
}

func (e *ReadError) Unwrap() error { return e.Kind.sentinel() }

// KindOf returns the ErrorKind of err, or 0 if err is not a read failure.
func KindOf(err error) ErrorKind {
	var re *ReadError
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}

// itoa for small non-negative ints (no strconv on the MCU path).
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 && i > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
