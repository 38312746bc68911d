package envmon

import (
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"envmon-go/bus"
)

// atomicSource lets the test swap readings while the service loop runs.
type atomicSource struct {
	temp atomic.Uint32
	hum  atomic.Uint32
}

func newAtomicSource(t, h float32) *atomicSource {
	s := &atomicSource{}
	s.set(t, h)
	return s
}

func (s *atomicSource) set(t, h float32) {
	s.temp.Store(math.Float32bits(t))
	s.hum.Store(math.Float32bits(h))
}

func (s *atomicSource) ReadTemperature() float32 { return math.Float32frombits(s.temp.Load()) }
func (s *atomicSource) ReadHumidity() float32    { return math.Float32frombits(s.hum.Load()) }

type nullSink struct{ statics int }

func (n *nullSink) DrawStatic()                   { n.statics++ }
func (n *nullSink) DrawStatus(bool)               {}
func (n *nullSink) DrawTemperature(float32, bool) {}
func (n *nullSink) DrawHumidity(float32, bool)    {}

func waitMsg(t *testing.T, sub *bus.Subscription, timeout time.Duration) *bus.Message {
	t.Helper()
	select {
	case m := <-sub.Channel():
		return m
	case <-time.After(timeout):
		t.Fatal("timeout waiting for bus message")
		return nil
	}
}

func TestRunPublishesReadingAndStatus(t *testing.T) {
	b := bus.NewBus(8)
	svcConn := b.NewConnection("envmon")
	uiConn := b.NewConnection("ui")

	readings := uiConn.Subscribe(bus.T("envmon", "reading"))
	statuses := uiConn.Subscribe(bus.T("envmon", "status"))
	defer readings.Unsubscribe()
	defer statuses.Unsubscribe()

	sink := &nullSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Run(ctx, svcConn, newAtomicSource(22.5, 45.0), sink, Config{
		Interval:  50 * time.Millisecond,
		TickEvery: time.Millisecond,
	})

	m := waitMsg(t, readings, 2*time.Second)
	r, ok := m.Payload.(ReadingPayload)
	if !ok {
		t.Fatalf("payload type %T", m.Payload)
	}
	if r.Temperature != 22.5 || r.Humidity != 45.0 || !r.Valid {
		t.Fatalf("reading = %+v", r)
	}
	if !m.Retained {
		t.Fatal("reading must be retained")
	}

	sm := waitMsg(t, statuses, 2*time.Second)
	st, ok := sm.Payload.(StatusPayload)
	if !ok || !st.Connected {
		t.Fatalf("status = %+v", sm.Payload)
	}
	if sink.statics != 1 {
		t.Fatalf("DrawStatic called %d times, want 1", sink.statics)
	}
}

func TestSetRateControlClampsAndAnnounces(t *testing.T) {
	b := bus.NewBus(8)
	svcConn := b.NewConnection("envmon")
	uiConn := b.NewConnection("ui")

	rates := uiConn.Subscribe(bus.T("envmon", "rate"))
	defer rates.Unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Run(ctx, svcConn, newAtomicSource(21.0, 40.0), &nullSink{}, Config{
		TickEvery: time.Millisecond,
	})

	m := waitMsg(t, rates, 2*time.Second)
	if r := m.Payload.(RatePayload); r.PeriodMS != 2000 {
		t.Fatalf("initial rate = %d, want default 2000", r.PeriodMS)
	}

	uiConn.Publish(uiConn.NewMessage(bus.T("envmon", "control", "set_rate"), 500, false))
	m = waitMsg(t, rates, 2*time.Second)
	if r := m.Payload.(RatePayload); r.PeriodMS != 500 {
		t.Fatalf("rate after set_rate 500 = %d", r.PeriodMS)
	}

	// Below the floor: clamped, not rejected.
	uiConn.Publish(uiConn.NewMessage(bus.T("envmon", "control", "set_rate"), 50, false))
	m = waitMsg(t, rates, 2*time.Second)
	if r := m.Payload.(RatePayload); r.PeriodMS != 200 {
		t.Fatalf("rate after set_rate 50 = %d, want clamped 200", r.PeriodMS)
	}
}

func TestReadNowCollapsesWait(t *testing.T) {
	b := bus.NewBus(8)
	svcConn := b.NewConnection("envmon")
	uiConn := b.NewConnection("ui")

	readings := uiConn.Subscribe(bus.T("envmon", "reading"))
	defer readings.Unsubscribe()

	src := newAtomicSource(20.0, 50.0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Run(ctx, svcConn, src, &nullSink{}, Config{
		Interval:  time.Hour, // next natural read is far away
		TickEvery: time.Millisecond,
	})

	waitMsg(t, readings, 2*time.Second) // first cycle

	src.set(25.0, 55.0)
	uiConn.Publish(uiConn.NewMessage(bus.T("envmon", "control", "read_now"), nil, false))

	m := waitMsg(t, readings, 2*time.Second)
	r := m.Payload.(ReadingPayload)
	if r.Temperature != 25.0 || r.Humidity != 55.0 {
		t.Fatalf("reading after read_now = %+v", r)
	}
}

func TestParsePeriodMS(t *testing.T) {
	cases := []struct {
		in   any
		want int
	}{
		{500, 500},
		{int64(300), 300},
		{float64(1000), 1000},
		{RatePayload{PeriodMS: 250}, 250},
		{"nope", 0},
		{nil, 0},
	}
	for _, tc := range cases {
		if got := parsePeriodMS(tc.in); got != tc.want {
			t.Errorf("parsePeriodMS(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
