// Package screen renders the fixed-layout status/temperature/humidity
// panel on any tinygo.org/x/drivers Displayer.
//
// The layout mirrors a 170x320 portrait ST7789: a banner block at the
// top, three labels at fixed rows, and a value row under each label.
// Static text is painted once; value updates blank a fixed-width band
// and rewrite only their own row, so a refresh never repaints the whole
// screen.
package screen

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"envmon-go/x/strconvx"
)

// Row baselines and geometry, in pixels.
const (
	xText = 4

	yBanner1 = 16
	yBanner2 = 32
	yBanner3 = 48

	yStatusLabel = 76
	yStatusValue = 96
	yTempLabel   = 126
	yTempValue   = 146
	yHumLabel    = 176
	yHumValue    = 196

	// Blanked band around a value baseline.
	fontAscent = 12
	lineHeight = 16
	valueWidth = 150
)

// Config controls colors and the glyph set. All fields are optional.
type Config struct {
	Font       tinyfont.Fonter
	Foreground color.RGBA
	Background color.RGBA
}

// Panel is the display sink. It owns no timing; callers decide when to
// draw.
type Panel struct {
	disp drivers.Displayer
	font tinyfont.Fonter
	fg   color.RGBA
	bg   color.RGBA
}

// rectFiller is the optional fast path some drivers expose (ST7789 does).
type rectFiller interface {
	FillRectangle(x, y, width, height int16, c color.RGBA) error
}

// New creates a panel bound to the given displayer.
func New(disp drivers.Displayer) Panel {
	return Panel{disp: disp}
}

// Configure applies optional config and defaults.
func (p *Panel) Configure(cfgs ...Config) {
	var c Config
	if len(cfgs) > 0 {
		c = cfgs[0]
	}
	if c.Font == nil {
		c.Font = &proggy.TinySZ8pt7b
	}
	if c.Foreground == (color.RGBA{}) {
		c.Foreground = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	p.font = c.Font
	p.fg = c.Foreground
	p.bg = c.Background
}

// DrawStatic clears the screen and paints the banner and labels. Called
// once at startup; value rows are left blank until the first update.
func (p *Panel) DrawStatic() {
	if p.font == nil {
		p.Configure()
	}
	w, h := p.disp.Size()
	p.fill(0, 0, w, h, p.bg)

	p.write(xText, yBanner1, "---------------------------")
	p.write(xText, yBanner2, "-   DHT Sensor Module     -")
	p.write(xText, yBanner3, "---------------------------")

	p.write(xText, yStatusLabel, "Status:")
	p.write(xText, yTempLabel, "Temperature:")
	p.write(xText, yHumLabel, "Humidity:")
	p.flush()
}

// DrawStatus rewrites the connectivity row.
func (p *Panel) DrawStatus(connected bool) {
	p.blankValue(yStatusValue)
	if connected {
		p.write(xText, yStatusValue, "CONNECTED")
	} else {
		p.write(xText, yStatusValue, "DISCONNECTED")
	}
	p.flush()
}

// DrawTemperature rewrites the temperature row.
func (p *Panel) DrawTemperature(v float32, valid bool) {
	p.blankValue(yTempValue)
	p.write(xText, yTempValue, valueText(v, valid, " C"))
	p.flush()
}

// DrawHumidity rewrites the humidity row.
func (p *Panel) DrawHumidity(v float32, valid bool) {
	p.blankValue(yHumValue)
	p.write(xText, yHumValue, valueText(v, valid, " %"))
	p.flush()
}

// valueText formats a reading with two decimals, or the placeholder.
func valueText(v float32, valid bool, unit string) string {
	if !valid {
		return "N/A"
	}
	return strconvx.FormatFloat(float64(v), 'f', 2, 32) + unit
}

func (p *Panel) write(x, y int16, s string) {
	tinyfont.WriteLine(p.disp, p.font, x, y, s, p.fg)
}

// blankValue erases the fixed-width band around a value baseline.
func (p *Panel) blankValue(baseline int16) {
	if p.font == nil {
		p.Configure()
	}
	p.fill(xText, baseline-fontAscent, valueWidth, lineHeight, p.bg)
}

func (p *Panel) fill(x, y, w, h int16, c color.RGBA) {
	if rf, ok := p.disp.(rectFiller); ok {
		if rf.FillRectangle(x, y, w, h, c) == nil {
			return
		}
	}
	for dy := int16(0); dy < h; dy++ {
		for dx := int16(0); dx < w; dx++ {
			p.disp.SetPixel(x+dx, y+dy, c)
		}
	}
}

func (p *Panel) flush() {
	// No-op for direct-write panels; buffered drivers need it.
	_ = p.disp.Display()
}
