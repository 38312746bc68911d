package screen

import (
	"image/color"
	"testing"
)

type fakeDisplay struct {
	w, h     int16
	touched  map[[2]int16]color.RGBA
	displays int
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{w: 170, h: 320, touched: map[[2]int16]color.RGBA{}}
}

func (f *fakeDisplay) Size() (int16, int16) { return f.w, f.h }
func (f *fakeDisplay) SetPixel(x, y int16, c color.RGBA) {
	f.touched[[2]int16{x, y}] = c
}
func (f *fakeDisplay) Display() error {
	f.displays++
	return nil
}

func TestValueText(t *testing.T) {
	cases := []struct {
		v     float32
		valid bool
		unit  string
		want  string
	}{
		{22.5, true, " C", "22.50 C"},
		{45, true, " %", "45.00 %"},
		{-6.5, true, " C", "-6.50 C"},
		{0, true, " C", "0.00 C"},
		{99.9, false, " C", "N/A"},
	}
	for _, tc := range cases {
		if got := valueText(tc.v, tc.valid, tc.unit); got != tc.want {
			t.Errorf("valueText(%v, %v) = %q, want %q", tc.v, tc.valid, got, tc.want)
		}
	}
}

func TestDrawStaticPaintsLabels(t *testing.T) {
	disp := newFakeDisplay()
	p := New(disp)
	p.Configure()
	p.DrawStatic()

	if len(disp.touched) == 0 {
		t.Fatal("static draw touched no pixels")
	}
	// Label rows must have foreground pixels.
	for _, baseline := range []int16{yStatusLabel, yTempLabel, yHumLabel} {
		if !rowHasForeground(disp, baseline) {
			t.Errorf("no label pixels near baseline %d", baseline)
		}
	}
	if disp.displays != 1 {
		t.Fatalf("static draw flushed %d times, want 1", disp.displays)
	}
}

func TestDrawTemperatureStaysInItsBand(t *testing.T) {
	disp := newFakeDisplay()
	p := New(disp)
	p.Configure()
	p.DrawTemperature(22.5, true)

	if len(disp.touched) == 0 {
		t.Fatal("no pixels touched")
	}
	for px := range disp.touched {
		y := px[1]
		if y <= yStatusValue+lineHeight || y >= yHumValue-fontAscent {
			t.Fatalf("temperature draw touched foreign row y=%d", y)
		}
	}
}

func TestDrawStatusOverwritesValueRow(t *testing.T) {
	disp := newFakeDisplay()
	p := New(disp)
	p.Configure()

	p.DrawStatus(true)
	p.DrawStatus(false)

	if !rowHasForeground(disp, yStatusValue) {
		t.Fatal("status row has no text")
	}
	if disp.displays != 2 {
		t.Fatalf("flushed %d times, want 2", disp.displays)
	}
}

func rowHasForeground(disp *fakeDisplay, baseline int16) bool {
	for px, c := range disp.touched {
		y := px[1]
		if y > baseline-fontAscent && y <= baseline+4 && c.R != 0 {
			return true
		}
	}
	return false
}
