// Package dht provides a driver for single-wire DHT11/DHT22/AM2302
// humidity and temperature sensors.
//
//	d := dht.New(pin, dht.Config{Model: dht.DHT22})
//	f, err := d.Read()   // rate limited; returns the cached result if called too soon
//	hi, lo := d.Humidity()
//
// The sensor answers a host start pulse with 40 bits. Each bit is a ~54 µs low
// phase followed by a high phase of ~24 µs (0) or ~70 µs (1). Pulse widths are
// measured in busy-wait loop iterations with interrupts suppressed, and a bit
// is classified by comparing its high phase against its own low phase, so no
// absolute time calibration is needed.
//
// A Device is not safe for concurrent use. It owns its pin and its reading
// cache; callers that share a sensor must serialise access themselves.
package dht

import (
	"time"

	"dhtcode-go/x/timex"
)

// Model selects the value encoding used by the fixed-point helpers.
type Model uint8

const (
	DHT22 Model = iota // also AM2302
	DHT11
)

func (m Model) String() string {
	if m == DHT11 {
		return "dht11"
	}
	return "dht22"
}

// Frame is one transmission: humidity integral/fractional, temperature
// integral/fractional, checksum.
type Frame [5]byte

// Sum returns the low byte of the sum of the four data bytes.
func (f Frame) Sum() byte { return f[0] + f[1] + f[2] + f[3] }

// Valid reports whether the checksum byte matches the data bytes.
func (f Frame) Valid() bool { return f[4] == f.Sum() }

// Pin is the data line. ConfigureInputPullUp releases the line to the
// pull-up so the sensor can drive it.
type Pin interface {
	ConfigureOutput(initial bool) error
	ConfigureInputPullUp() error
	Set(level bool)
	Get() bool
}

// IRQState is the opaque value returned by Interrupts.Disable.
type IRQState uintptr

// Interrupts masks asynchronous interruption for the pulse capture.
type Interrupts interface {
	Disable() IRQState
	Restore(IRQState)
}

// Clock is a monotonic millisecond clock.
type Clock interface {
	NowMs() int64
}

// Defaults.
const (
	DefaultMinInterval = 2 * time.Second
	DefaultCycleBudget = 10000
	DefaultStartLow    = 20 * time.Millisecond
	DefaultSettle      = 1 * time.Millisecond
)

// Config controls timing and collaborators. All fields are optional.
type Config struct {
	Model Model

	// MinInterval is the minimum spacing between physical reads. Reads
	// issued sooner return the cached result. Default 2 s.
	MinInterval time.Duration
	// CycleBudget bounds every pulse measurement, in loop iterations.
	// A pulse that reaches it is a timeout. Default 10000.
	CycleBudget uint32
	// AckBudget bounds the wait for the sensor to pull the line low after
	// the start pulse, before interrupts are masked. Default CycleBudget.
	AckBudget uint32
	// StartLow is how long the host holds the line low to request a
	// reading. Default 20 ms.
	StartLow time.Duration
	// Settle is the pull-up time before the start pulse. Default 1 ms.
	Settle time.Duration
	// EarlyChecksum accepts a frame as soon as the checksum byte matches
	// after any bit, instead of only after all 40 bits.
	EarlyChecksum bool

	Clock      Clock
	Sleep      func(time.Duration)
	Interrupts Interrupts
}

// Device drives one sensor.
type Device struct {
	pin Pin
	cfg Config

	// reading cache
	haveRead  bool
	lastMs    int64
	lastFrame Frame
	lastErr   error

	// last accepted frame, for the accessors
	frame    Frame
	accepted bool
}

// New creates a Device on pin. The pin is not touched until the first Read.
func New(pin Pin, cfgs ...Config) *Device {
	var c Config
	if len(cfgs) > 0 {
		c = cfgs[0]
	}
	if c.MinInterval <= 0 {
		c.MinInterval = DefaultMinInterval
	}
	if c.CycleBudget == 0 {
		c.CycleBudget = DefaultCycleBudget
	}
	if c.AckBudget == 0 {
		c.AckBudget = c.CycleBudget
	}
	if c.StartLow <= 0 {
		c.StartLow = DefaultStartLow
	}
	if c.Settle <= 0 {
		c.Settle = DefaultSettle
	}
	if c.Clock == nil {
		c.Clock = monoClock{}
	}
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
	if c.Interrupts == nil {
		c.Interrupts = noIRQ{}
	}
	return &Device{pin: pin, cfg: c}
}

// Model returns the configured sensor model.
func (d *Device) Model() Model { return d.cfg.Model }

// MinInterval returns the configured rate-limit interval.
func (d *Device) MinInterval() time.Duration { return d.cfg.MinInterval }

// Read returns one frame. If the previous attempt finished less than
// MinInterval ago, its result is returned again without touching the pin.
// Errors unwrap to ErrHandshakeTimeout, ErrPulseTimeout or
// ErrChecksumMismatch, or are pin configuration errors.
func (d *Device) Read() (Frame, error) {
	now := d.cfg.Clock.NowMs()
	if d.haveRead && now-d.lastMs < d.cfg.MinInterval.Milliseconds() {
		return d.lastFrame, d.lastErr
	}

	f, err := d.transact()

	d.haveRead = true
	d.lastMs = d.cfg.Clock.NowMs()
	d.lastFrame = f
	d.lastErr = err
	if err == nil {
		d.frame = f
		d.accepted = true
	}
	return f, err
}

// transact runs one handshake, capture and decode.
func (d *Device) transact() (Frame, error) {
	var f Frame
	var cycles [80]Cycles

	if err := d.start(); err != nil {
		return f, err
	}

	if err := d.capture(&cycles); err != nil {
		return f, err
	}

	return d.assemble(&cycles)
}

// start sends the start request and waits for the sensor to take the line.
func (d *Device) start() error {
	if err := d.pin.ConfigureInputPullUp(); err != nil {
		return err
	}
	d.cfg.Sleep(d.cfg.Settle)

	if err := d.pin.ConfigureOutput(false); err != nil {
		return err
	}
	d.pin.Set(false)
	d.cfg.Sleep(d.cfg.StartLow)

	if err := d.pin.ConfigureInputPullUp(); err != nil {
		return err
	}

	// Line is pulled high until the sensor answers.
	if waitLow(d.pin, d.cfg.AckBudget) == TimedOut {
		return &ReadError{Kind: HandshakeTimeout, Stage: StageWaitAck, Bit: -1}
	}
	return nil
}

// capture measures the acknowledgment and the 80 data pulses with
// interrupts masked. The mask is released exactly once on every path.
func (d *Device) capture(cycles *[80]Cycles) error {
	st := d.cfg.Interrupts.Disable()
	defer d.cfg.Interrupts.Restore(st)

	if d.expectPulse(false) == TimedOut {
		return &ReadError{Kind: HandshakeTimeout, Stage: StageAckLow, Bit: -1}
	}
	if d.expectPulse(true) == TimedOut {
		return &ReadError{Kind: HandshakeTimeout, Stage: StageAckHigh, Bit: -1}
	}

	for i := 0; i < len(cycles); i += 2 {
		cycles[i] = d.expectPulse(false)
		if cycles[i] == TimedOut {
			return nil
		}
		cycles[i+1] = d.expectPulse(true)
		if cycles[i+1] == TimedOut {
			return nil
		}
	}
	return nil
}

// assemble folds the samples MSB-first into a frame and validates it.
func (d *Device) assemble(cycles *[80]Cycles) (Frame, error) {
	var f Frame
	for i := 0; i < 40; i++ {
		low, high := cycles[2*i], cycles[2*i+1]
		if low == TimedOut || high == TimedOut {
			return f, &ReadError{Kind: PulseTimeout, Stage: StageData, Bit: i, Frame: f}
		}
		f[i/8] <<= 1
		if bitOf(low, high) {
			f[i/8] |= 1
		}
		if d.cfg.EarlyChecksum && f.Valid() {
			return f, nil
		}
	}
	if !f.Valid() {
		return f, &ReadError{Kind: ChecksumMismatch, Stage: StageChecksum, Bit: 39, Frame: f}
	}
	return f, nil
}

// bitOf classifies one bit. Equal widths decode as 0.
func bitOf(low, high Cycles) bool { return high > low }

// ---- Accessors over the last accepted frame ----

// Humidity returns the integral and fractional humidity bytes. The result
// is zero until a read has succeeded.
func (d *Device) Humidity() (integral, fractional uint8) { return d.frame[0], d.frame[1] }

// Temperature returns the integral and fractional temperature bytes.
func (d *Device) Temperature() (integral, fractional uint8) { return d.frame[2], d.frame[3] }

// Frame returns the last accepted frame.
func (d *Device) Frame() Frame { return d.frame }

// HasFrame reports whether any read has succeeded.
func (d *Device) HasFrame() bool { return d.accepted }

// DeciRelHumidity returns tenths of %RH from the last accepted frame.
func (d *Device) DeciRelHumidity() int32 { return DeciRelHumidity(d.cfg.Model, d.frame) }

// DeciCelsius returns tenths of °C from the last accepted frame.
func (d *Device) DeciCelsius() int32 { return DeciCelsius(d.cfg.Model, d.frame) }

// LastReadMs returns the clock value at the end of the last attempt.
func (d *Device) LastReadMs() int64 { return d.lastMs }

// LastErr returns the cached result of the last attempt.
func (d *Device) LastErr() error { return d.lastErr }

// ---- defaults ----

type monoClock struct{}

func (monoClock) NowMs() int64 { return timex.MonoMs() }

type noIRQ struct{}

func (noIRQ) Disable() IRQState { return 0 }
func (noIRQ) Restore(IRQState)  {}
