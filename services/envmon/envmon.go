// services/envmon/envmon.go
package envmon

import (
	"context"
	"time"

	"envmon-go/bus"
	"envmon-go/errcode"
	"envmon-go/poll"
	"envmon-go/x/mathx"
)

// -----------------------------------------------------------------------------
// Bus payloads
// -----------------------------------------------------------------------------

// ReadingPayload is the retained envmon/reading document.
type ReadingPayload struct {
	Temperature float32
	Humidity    float32
	Valid       bool
	TsMs        int64
}

// StatusPayload is the retained envmon/status document.
type StatusPayload struct {
	Connected bool
	TsMs      int64
}

// RatePayload is the retained envmon/rate document.
type RatePayload struct {
	PeriodMS int
}

// StatePayload announces service lifecycle on envmon/state.
type StatePayload struct {
	Status string
	Reason string
}

// Rate clamp bounds for set_rate, in milliseconds.
const (
	minPeriodMS = 200
	maxPeriodMS = 3_600_000
)

// -----------------------------------------------------------------------------
// Config + entry point
// -----------------------------------------------------------------------------

// Config carries service tunables. All fields are optional.
type Config struct {
	// Interval between sensor reads. Default 2000 ms.
	Interval time.Duration
	// TickEvery is the scheduler granularity: how often the cooperative
	// loop runs one machine transition. Default 10 ms.
	TickEvery time.Duration
	// Now overrides the machine's monotonic clock (tests).
	Now func() int64
}

// Run drives the polling machine from a single cooperative loop and
// bridges it to the bus: retained reading/status documents on every
// render, lifecycle on envmon/state, and controls on envmon/control/+
// (read_now, set_rate). Blocks until ctx is cancelled.
func Run(ctx context.Context, conn *bus.Connection, src poll.Source, sink poll.Sink, cfgs ...Config) {
	var cfg Config
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}
	if cfg.TickEvery <= 0 {
		cfg.TickEvery = 10 * time.Millisecond
	}

	s := &service{conn: conn}
	s.m = poll.New(src, sink, poll.Config{
		Interval: cfg.Interval,
		Now:      cfg.Now,
		OnRender: s.publishRender,
	})

	// Static labels once; the first cycle paints the value rows.
	sink.DrawStatic()
	s.loop(ctx, cfg.TickEvery)
}

// -----------------------------------------------------------------------------
// Service
// -----------------------------------------------------------------------------

type service struct {
	conn *bus.Connection
	m    *poll.Machine
}

func (s *service) loop(ctx context.Context, tickEvery time.Duration) {
	ctrlSub := s.conn.Subscribe(bus.T("envmon", "control", "+"))
	defer s.conn.Unsubscribe(ctrlSub)

	s.publishState("ready", "polling")
	s.publishRate()

	ticker := time.NewTicker(tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.publishState("stopped", "context_cancelled")
			return

		case msg := <-ctrlSub.Channel():
			// envmon/control/<method>
			if msg.Topic.Len() < 3 {
				continue
			}
			method, _ := msg.Topic.At(2).(string)
			s.handleControl(method, msg.Payload)

		case <-ticker.C:
			s.m.Tick()
		}
	}
}

func (s *service) handleControl(method string, payload any) {
	switch method {
	case "read_now":
		s.m.Kick()
	case "set_rate":
		ms := parsePeriodMS(payload)
		if ms <= 0 {
			s.publishState("error", string(errcode.InvalidParams))
			return
		}
		ms = mathx.Clamp(ms, minPeriodMS, maxPeriodMS)
		s.m.SetInterval(time.Duration(ms) * time.Millisecond)
		s.publishRate()
	default:
		s.publishState("error", string(errcode.Unsupported))
	}
}

// -----------------------------------------------------------------------------
// Publishing
// -----------------------------------------------------------------------------

func (s *service) publishRender(snap poll.Snapshot) {
	s.conn.Publish(s.conn.NewMessage(bus.T("envmon", "reading"), ReadingPayload{
		Temperature: snap.Reading.Temperature,
		Humidity:    snap.Reading.Humidity,
		Valid:       snap.Connected,
		TsMs:        snap.TsMs,
	}, true))
	s.conn.Publish(s.conn.NewMessage(bus.T("envmon", "status"), StatusPayload{
		Connected: snap.Connected,
		TsMs:      snap.TsMs,
	}, true))
}

func (s *service) publishRate() {
	s.conn.Publish(s.conn.NewMessage(bus.T("envmon", "rate"), RatePayload{
		PeriodMS: int(s.m.Interval() / time.Millisecond),
	}, true))
}

func (s *service) publishState(status, reason string) {
	s.conn.Publish(s.conn.NewMessage(bus.T("envmon", "state"), StatePayload{
		Status: status,
		Reason: reason,
	}, true))
}

// parsePeriodMS accepts the few shapes a period can arrive in.
func parsePeriodMS(payload any) int {
	switch v := payload.(type) {
	case RatePayload:
		return v.PeriodMS
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
