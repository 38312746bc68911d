// services/telemetry/telemetry.go
package telemetry

import (
	"context"
	"encoding/json"
	"io"

	"envmon-go/bus"
	"envmon-go/x/strconvx"
)

// Line is one exported record: topic path plus the payload as-is.
// Records are newline-delimited JSON, one per bus message.
type Line struct {
	Topic   string `json:"topic"`
	Payload any    `json:"payload,omitempty"`
}

// StatePayload announces exporter lifecycle on telemetry/state.
type StatePayload struct {
	Status string
	Reason string
	Err    string
}

// Config carries exporter tunables. All fields are optional.
type Config struct {
	// Match is the subscription pattern. Default envmon/#.
	Match bus.Topic
}

// Run streams matching bus messages to w until ctx is cancelled. A
// write failure degrades the exporter for that record only; the stream
// resumes with the next message. Blocks; run it as its own goroutine.
func Run(ctx context.Context, conn *bus.Connection, w io.Writer, cfgs ...Config) {
	var cfg Config
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}
	if cfg.Match == nil {
		cfg.Match = bus.T("envmon", "#")
	}

	s := &service{conn: conn, enc: json.NewEncoder(w)}
	s.run(ctx, cfg.Match)
}

type service struct {
	conn *bus.Connection
	enc  *json.Encoder
}

func (s *service) run(ctx context.Context, match bus.Topic) {
	sub := s.conn.Subscribe(match)
	defer s.conn.Unsubscribe(sub)

	s.publishState("up", "streaming", nil)

	for {
		select {
		case <-ctx.Done():
			s.publishState("stopped", "context_cancelled", nil)
			return
		case m, ok := <-sub.Channel():
			if !ok {
				s.publishState("error", "subscription_closed", nil)
				return
			}
			if err := s.enc.Encode(Line{Topic: PathString(m.Topic), Payload: m.Payload}); err != nil {
				s.publishState("degraded", "write_failed", err)
			}
		}
	}
}

func (s *service) publishState(status, reason string, err error) {
	p := StatePayload{Status: status, Reason: reason}
	if err != nil {
		p.Err = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(bus.T("telemetry", "state"), p, true))
}

// PathString renders a topic as a slash-joined path.
func PathString(t bus.Topic) string {
	s := ""
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			s += "/"
		}
		switch v := t.At(i).(type) {
		case string:
			s += v
		case int:
			s += strconvx.Itoa(v)
		default:
			s += "?"
		}
	}
	return s
}
