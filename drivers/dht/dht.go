// Package dht provides a driver for DHT11 and DHT22 (AM2302)
// humidity/temperature sensors on their single-wire protocol.
//
// The driver talks to the data line through the narrow Pin interface, so
// the pulse decoding below the protocol layer is host-testable. A full
// measurement is:
//
//	err := d.Read()        // start signal + 40-bit capture + decode
//	t := d.Celsius()       // cached values from the last good Read
//
// The sensor needs two seconds between measurements; earlier calls fail
// with ErrTooSoon. The capture path avoids floating-point and
// allocations; fixed-point accessors return tenths of units.
package dht

import (
	"time"

	"envmon-go/errcode"
)

// Kind selects the sensor variant; the wire format differs.
type Kind uint8

const (
	DHT11 Kind = iota
	DHT22
)

// Pin is the single data line. SetInput must release the line to the
// pull-up; Get samples the current level.
type Pin interface {
	SetOutput(level bool)
	SetInput()
	Get() bool
}

// Errors returned by the driver. Each carries a stable errcode so
// services can report the failure class without string matching.
var (
	ErrTimeout  error = &errcode.E{C: errcode.Timeout, Msg: "dht: no edge within deadline"}
	ErrChecksum error = &errcode.E{C: errcode.Checksum, Msg: "dht: checksum mismatch"}
	ErrBadData  error = &errcode.E{C: errcode.BadData, Msg: "dht: implausible data"}
	ErrTooSoon  error = &errcode.E{C: errcode.TooSoon, Msg: "dht: minimum read interval not elapsed"}
)

// Protocol timings. High pulses longer than bitThreshold are ones;
// anything beyond pulseMax means the capture lost sync.
const (
	bitThreshold = 49 * time.Microsecond
	pulseMax     = 90 * time.Microsecond
	edgeTimeout  = 250 * time.Microsecond
)

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Kind defaults to DHT11.
	Kind Kind
	// MinInterval between reads. Default 2 s (datasheet minimum).
	MinInterval time.Duration
	// StartLow is the host start-signal hold time. Defaults to 18 ms
	// for DHT11 and 1.1 ms for DHT22.
	StartLow time.Duration
}

// Device wraps the data line of one sensor.
type Device struct {
	pin Pin
	cfg Config

	lastRead time.Time
	deciC    int32
	deciRH   int32
}

// New creates a new DHT connection. The pin must already be claimed by
// the caller. This only creates the Device object; it does not touch the
// sensor.
func New(pin Pin) Device {
	return Device{pin: pin}
}

// Configure applies optional config and leaves the line idle-high so the
// sensor is ready for the first read.
func (d *Device) Configure(cfgs ...Config) {
	var c Config
	if len(cfgs) > 0 {
		c = cfgs[0]
	}
	if c.MinInterval <= 0 {
		c.MinInterval = 2 * time.Second
	}
	if c.StartLow <= 0 {
		if c.Kind == DHT11 {
			c.StartLow = 18 * time.Millisecond
		} else {
			c.StartLow = 1100 * time.Microsecond
		}
	}
	d.cfg = c
	d.pin.SetOutput(true)
}

// Read performs one measurement and caches the result. On any error the
// previous cached values are kept.
func (d *Device) Read() error {
	if d.cfg.MinInterval == 0 {
		d.Configure()
	}
	now := time.Now()
	if !d.lastRead.IsZero() && now.Sub(d.lastRead) < d.cfg.MinInterval {
		return ErrTooSoon
	}
	d.lastRead = now

	var highs [40]time.Duration
	if err := d.capture(&highs); err != nil {
		return err
	}
	var raw [5]byte
	if err := decodePulses(&highs, &raw); err != nil {
		return err
	}
	deciC, deciRH, err := assemble(raw, d.cfg.Kind)
	if err != nil {
		return err
	}
	d.deciC, d.deciRH = deciC, deciRH
	return nil
}

// capture runs the wire protocol: start signal, response preamble, then
// 40 data bits. Each bit is a ~50 µs low followed by a high whose length
// encodes the bit; only the high durations matter for decoding.
func (d *Device) capture(highs *[40]time.Duration) error {
	// Start signal: hold the line low, then release to the pull-up.
	d.pin.SetOutput(false)
	time.Sleep(d.cfg.StartLow)
	d.pin.SetInput()

	// Response preamble: ~80 µs low, ~80 µs high, then the first bit's
	// low phase begins.
	if _, err := d.waitFor(false, edgeTimeout); err != nil {
		return err
	}
	if _, err := d.waitFor(true, edgeTimeout); err != nil {
		return err
	}
	if _, err := d.waitFor(false, edgeTimeout); err != nil {
		return err
	}

	for i := 0; i < 40; i++ {
		if _, err := d.waitFor(true, edgeTimeout); err != nil {
			return err
		}
		high, err := d.waitFor(false, edgeTimeout)
		if err != nil {
			return err
		}
		highs[i] = high
	}

	// Leave the line driven high for the next cycle.
	d.pin.SetOutput(true)
	return nil
}

// waitFor busy-reads until the line reaches level and returns how long
// the previous level lasted. No sleeping: the edges are tens of
// microseconds apart.
func (d *Device) waitFor(level bool, timeout time.Duration) (time.Duration, error) {
	start := time.Now()
	for d.pin.Get() != level {
		if time.Since(start) > timeout {
			d.pin.SetOutput(true)
			return 0, ErrTimeout
		}
	}
	return time.Since(start), nil
}

// decodePulses converts 40 high-pulse durations into 5 raw bytes.
func decodePulses(highs *[40]time.Duration, out *[5]byte) error {
	for i, high := range highs {
		if high > pulseMax {
			return ErrBadData
		}
		out[i/8] <<= 1
		if high > bitThreshold {
			out[i/8] |= 1
		}
	}
	return nil
}

// assemble validates the checksum and converts raw bytes into tenths of
// °C and %RH for the given sensor kind.
func assemble(raw [5]byte, kind Kind) (deciC, deciRH int32, err error) {
	if raw[0]+raw[1]+raw[2]+raw[3] != raw[4] {
		return 0, 0, ErrChecksum
	}

	if kind == DHT11 {
		// Integral bytes; the decimal bytes are zero on genuine parts.
		deciRH = int32(raw[0]) * 10
		deciC = int32(raw[2]) * 10
		if raw[0] > 100 || raw[2] > 50 {
			return 0, 0, ErrBadData
		}
		return deciC, deciRH, nil
	}

	// DHT22: 16-bit tenths, sign-magnitude temperature.
	deciRH = int32(raw[0])<<8 | int32(raw[1])
	traw := int32(raw[2])<<8 | int32(raw[3])
	deciC = traw & 0x7fff
	if traw&0x8000 != 0 {
		deciC = -deciC
	}
	if deciRH > 1000 || deciC < -400 || deciC > 800 {
		return 0, 0, ErrBadData
	}
	return deciC, deciRH, nil
}

// Fixed-point accessors: tenths of units from the last good Read.

func (d *Device) DeciCelsius() int32     { return d.deciC }
func (d *Device) DeciRelHumidity() int32 { return d.deciRH }

// Celsius returns °C. Prefer DeciCelsius for fixed-point.
func (d *Device) Celsius() float32 { return float32(d.deciC) / 10 }

// RelHumidity returns %RH. Prefer DeciRelHumidity for fixed-point.
func (d *Device) RelHumidity() float32 { return float32(d.deciRH) / 10 }
