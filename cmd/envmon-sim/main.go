//go:build !tinygo

// Host-side bench run: drives the polling service against a scripted
// sensor (slow drift with periodic dropouts) and a console sink, so the
// cycle can be watched without hardware.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"time"

	"envmon-go/bus"
	"envmon-go/services/envmon"
	"envmon-go/services/heartbeat"
	"envmon-go/services/telemetry"
)

// driftSource wanders around room conditions and goes dark for a few
// cycles now and then, exercising the disconnect/recover path.
type driftSource struct {
	reads int
}

func (s *driftSource) ReadTemperature() float32 {
	s.reads++
	if s.dropout() {
		return float32(math.NaN())
	}
	return 21.5 + 2.5*float32(math.Sin(float64(s.reads)/7))
}

func (s *driftSource) ReadHumidity() float32 {
	if s.dropout() {
		return float32(math.NaN())
	}
	return 48 + 6*float32(math.Cos(float64(s.reads)/11))
}

// dropout holds for reads 20..22, 40..42, and so on.
func (s *driftSource) dropout() bool { return s.reads%20 < 3 && s.reads >= 20 }

// consoleSink mirrors the fixed panel layout onto stdout.
type consoleSink struct{}

func (consoleSink) DrawStatic() {
	fmt.Println("--- envmon ---")
}

func (consoleSink) DrawStatus(connected bool) {
	if connected {
		fmt.Println("Status:      CONNECTED")
	} else {
		fmt.Println("Status:      DISCONNECTED")
	}
}

func (consoleSink) DrawTemperature(v float32, valid bool) {
	if valid {
		fmt.Printf("Temperature: %.2f C\n", v)
	} else {
		fmt.Println("Temperature: N/A")
	}
}

func (consoleSink) DrawHumidity(v float32, valid bool) {
	if valid {
		fmt.Printf("Humidity:    %.2f %%\n", v)
	} else {
		fmt.Println("Humidity:    N/A")
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	b := bus.NewBus(8)
	svcConn := b.NewConnection("envmon")
	uiConn := b.NewConnection("ui")

	states := uiConn.Subscribe(bus.T("envmon", "state"))
	go func() {
		for m := range states.Channel() {
			if st, ok := m.Payload.(envmon.StatePayload); ok {
				fmt.Printf("[state] %s (%s)\n", st.Status, st.Reason)
			}
		}
	}()

	heartbeat.Start(ctx, b.NewConnection("heartbeat"), 5*time.Second)
	go telemetry.Run(ctx, b.NewConnection("telemetry"), os.Stdout)

	envmon.Run(ctx, svcConn, &driftSource{}, consoleSink{}, envmon.Config{
		Interval: 500 * time.Millisecond,
	})
}
