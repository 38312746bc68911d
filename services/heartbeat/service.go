package heartbeat

import (
	"context"
	"time"

	"envmon-go/bus"
	"envmon-go/x/mathx"
	"envmon-go/x/timex"
)

// Beat is the retained system/heartbeat document.
type Beat struct {
	Seq      uint32
	UptimeMs int64
}

type Service struct {
	interval time.Duration
	seq      uint32
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	ctrlSub := conn.Subscribe(bus.T("system", "heartbeat", "set_rate"))
	defer conn.Unsubscribe(ctrlSub)

	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	// loop until context is cancelled, respond to tick and rate changes
	for {
		select {
		case <-ctx.Done():
			println("Info: heartbeat service stopping")
			return
		case <-tick.C:
			s.seq++
			conn.Publish(conn.NewMessage(bus.T("system", "heartbeat"), Beat{
				Seq:      s.seq,
				UptimeMs: timex.Millis(),
			}, true))
		case msg := <-ctrlSub.Channel():
			ms := 0
			switch v := msg.Payload.(type) {
			case int:
				ms = v
			case int64:
				ms = int(v)
			case float64:
				ms = int(v)
			}
			if ms > 0 {
				ms = mathx.Clamp(ms, 100, 3_600_000)
				s.interval = time.Duration(ms) * time.Millisecond
				tick.Reset(s.interval)
				println("Info: heartbeat interval set to", ms, "ms")
			}
		}
	}
}

// Start the heartbeat service.
func Start(ctx context.Context, conn *bus.Connection, interval time.Duration) {
	if interval <= 0 {
		interval = 1 * time.Second
	}
	s := &Service{interval: interval}
	go s.serviceLoop(ctx, conn)
}
