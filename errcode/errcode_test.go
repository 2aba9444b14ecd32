package errcode

import (
	"errors"
	"testing"

	"dhtcode-go/drivers/dht"
)

func TestMapDriverErr(t *testing.T) {
	cases := []struct {
		err  error
		want Code
	}{
		{nil, OK},
		{&dht.ReadError{Kind: dht.HandshakeTimeout, Bit: -1}, HandshakeTimeout},
		{&dht.ReadError{Kind: dht.PulseTimeout, Bit: 3}, PulseTimeout},
		{&dht.ReadError{Kind: dht.ChecksumMismatch, Bit: 39}, ChecksumMismatch},
		{UnknownPin, UnknownPin},
		{errors.New("boom"), Error},
	}
	for _, c := range cases {
		if got := MapDriverErr(c.err); got != c.want {
			t.Errorf("MapDriverErr(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestWrapKeepsCauseAndCode(t *testing.T) {
	cause := &dht.ReadError{Kind: dht.PulseTimeout, Stage: dht.StageData, Bit: 7}
	err := Wrap("dht0", cause)
	if Of(err) != PulseTimeout {
		t.Fatalf("Of = %q", Of(err))
	}
	if !errors.Is(err, dht.ErrPulseTimeout) {
		t.Fatal("wrapped error lost its cause")
	}
	if got := err.Error(); got != "dht0: pulse_timeout: dht: pulse timeout (data bit 7)" {
		t.Fatalf("Error() = %q", got)
	}
	if Wrap("x", nil) != nil {
		t.Fatal("Wrap(nil) should be nil")
	}
}
