// Package poll implements the sample/render cycle for a single
// humidity/temperature sensor and a fixed-layout display.
//
// The cycle is a three-state machine driven by Tick():
//
//	READ_SENSOR -> UPDATE_DISPLAY -> WAIT -> READ_SENSOR
//
// Tick performs exactly one transition and never blocks; WAIT is a busy
// check against a monotonic millisecond clock, so the hosting loop stays
// free to do other work between ticks. The display is redrawn only when
// the sampled (temperature, humidity, connected) triple differs from the
// last rendered one.
package poll

import (
	"time"

	"envmon-go/x/timex"
)

// State identifies the machine's current phase.
type State uint8

const (
	StateReadSensor State = iota
	StateUpdateDisplay
	StateWait
)

func (s State) String() string {
	switch s {
	case StateReadSensor:
		return "read_sensor"
	case StateUpdateDisplay:
		return "update_display"
	case StateWait:
		return "wait"
	}
	return "unknown"
}

// Reading is one sampled (temperature, humidity) pair. A NaN in either
// field marks the whole reading invalid.
type Reading struct {
	Temperature float32 // °C
	Humidity    float32 // %RH
}

// Valid reports whether both channels carry real values.
func (r Reading) Valid() bool {
	return !isNaN32(r.Temperature) && !isNaN32(r.Humidity)
}

// Source supplies sensor samples. NaN from either channel signals sensor
// absence or fault for that channel; the machine treats either channel's
// fault as invalidating the whole reading.
type Source interface {
	ReadTemperature() float32
	ReadHumidity() float32
}

// Sink renders fixed-layout fields. DrawStatic paints the unchanging
// labels and is expected to be called once before the first Tick; the
// Draw* value methods overwrite only their own region.
type Sink interface {
	DrawStatic()
	DrawStatus(connected bool)
	DrawTemperature(v float32, valid bool)
	DrawHumidity(v float32, valid bool)
}

// Snapshot describes one completed display update.
type Snapshot struct {
	Reading   Reading
	Connected bool
	TsMs      int64
}

// Config carries the machine's tunables. All fields are optional.
type Config struct {
	// Interval between sensor reads. Default 2000 ms.
	Interval time.Duration
	// Now supplies a monotonic millisecond counter, read once per Tick.
	// Default timex.Millis.
	Now func() int64
	// OnRender, when set, observes every display update.
	OnRender func(Snapshot)
}

// Machine owns all mutable cycle state. It is not safe for concurrent
// use; one cooperative loop drives it via Tick.
type Machine struct {
	src  Source
	sink Sink
	cfg  Config

	state     State
	last      Reading // last rendered reading
	connected bool
	redraw    bool
	waitStart int64
	kicked    bool

	ticks   uint32
	renders uint32
}

// New builds a machine in its startup state: READ_SENSOR next, assumed
// connected, zeroed previous reading, and one redraw already pending so
// the first cycle always paints.
func New(src Source, sink Sink, cfg Config) *Machine {
	if cfg.Interval <= 0 {
		cfg.Interval = 2000 * time.Millisecond
	}
	if cfg.Now == nil {
		cfg.Now = timex.Millis
	}
	return &Machine{
		src:       src,
		sink:      sink,
		cfg:       cfg,
		state:     StateReadSensor,
		connected: true,
		redraw:    true,
	}
}

// Tick runs one transition. The clock is read once per call.
func (m *Machine) Tick() {
	now := m.cfg.Now()
	m.ticks++

	switch m.state {
	case StateReadSensor:
		t := m.src.ReadTemperature()
		h := m.src.ReadHumidity()
		connected := !isNaN32(t) && !isNaN32(h)

		// Exact comparison, no epsilon. NaN != NaN, so a faulted
		// sensor re-marks the redraw each cycle and the placeholder
		// stays fresh.
		if t != m.last.Temperature || h != m.last.Humidity || connected != m.connected {
			m.redraw = true
			m.last = Reading{Temperature: t, Humidity: h}
		}
		m.connected = connected
		m.state = StateUpdateDisplay

	case StateUpdateDisplay:
		if m.redraw {
			m.render(now)
			m.redraw = false
		}
		m.waitStart = now
		m.state = StateWait

	case StateWait:
		if m.kicked || now-m.waitStart >= m.cfg.Interval.Milliseconds() {
			m.kicked = false
			m.state = StateReadSensor
		}

	default:
		m.state = StateReadSensor
	}
}

func (m *Machine) render(now int64) {
	m.sink.DrawStatus(m.connected)
	m.sink.DrawTemperature(m.last.Temperature, m.connected)
	m.sink.DrawHumidity(m.last.Humidity, m.connected)
	m.renders++
	if m.cfg.OnRender != nil {
		m.cfg.OnRender(Snapshot{Reading: m.last, Connected: m.connected, TsMs: now})
	}
}

// Kick collapses a pending WAIT so the next Tick samples immediately.
// No-op outside WAIT; the cycle order is never shortened.
func (m *Machine) Kick() { m.kicked = true }

// SetInterval adjusts the read period for subsequent cycles.
func (m *Machine) SetInterval(d time.Duration) {
	if d > 0 {
		m.cfg.Interval = d
	}
}

// Interval returns the current read period.
func (m *Machine) Interval() time.Duration { return m.cfg.Interval }

// State returns the phase the next Tick will execute.
func (m *Machine) State() State { return m.state }

// Connected reports the connectivity of the last sample.
func (m *Machine) Connected() bool { return m.connected }

// Last returns the last rendered reading.
func (m *Machine) Last() Reading { return m.last }

// Ticks and Renders are diagnostics counters.
func (m *Machine) Ticks() uint32   { return m.ticks }
func (m *Machine) Renders() uint32 { return m.renders }

// isNaN32 avoids pulling in math for one predicate.
func isNaN32(f float32) bool { return f != f }
