//go:build rp2040

// Firmware entry point for a Raspberry Pi Pico wired to an ST7789 TFT
// (SPI0) and a DHT11 on GP2. Telemetry is streamed as JSON lines over
// UART0 on GP0/GP1.
package main

import (
	"context"
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers/st7789"

	"envmon-go/bus"
	"envmon-go/drivers/dht"
	"envmon-go/screen"
	"envmon-go/services/envmon"
	"envmon-go/services/heartbeat"
	"envmon-go/services/telemetry"
)

const (
	pinDHT       = machine.GP2
	pinTFTReset  = machine.GP12
	pinTFTDC     = machine.GP13
	pinTFTCS     = machine.GP14
	pinTFTLight  = machine.GP15
	pinUARTTX    = machine.GP0
	pinUARTRX    = machine.GP1
	uartBaud     = 115200
	spiFrequency = 32_000_000
)

// dataPin adapts machine.Pin to the DHT driver's line interface.
type dataPin struct{ p machine.Pin }

func (d dataPin) SetOutput(level bool) {
	d.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.p.Set(level)
}
func (d dataPin) SetInput() {
	d.p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
}
func (d dataPin) Get() bool { return d.p.Get() }

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(3 * time.Second)
	ctx := context.Background()

	println("[main] configuring telemetry uart ...")
	uart := uartx.UART0
	_ = uart.Configure(uartx.UARTConfig{
		BaudRate: uartBaud,
		TX:       pinUARTTX,
		RX:       pinUARTRX,
	})

	println("[main] configuring display ...")
	_ = machine.SPI0.Configure(machine.SPIConfig{
		Frequency: spiFrequency,
		SCK:       machine.GP18,
		SDO:       machine.GP19,
		Mode:      0,
	})
	display := st7789.New(machine.SPI0, pinTFTReset, pinTFTDC, pinTFTCS, pinTFTLight)
	display.Configure(st7789.Config{
		Width:  170,
		Height: 320,
	})
	panel := screen.New(&display)
	panel.Configure()

	println("[main] configuring sensor ...")
	sensor := dht.New(dataPin{p: pinDHT})
	sensor.Configure(dht.Config{Kind: dht.DHT11})

	println("[main] bootstrapping bus ...")
	b := bus.NewBus(4)
	svcConn := b.NewConnection("envmon")
	telConn := b.NewConnection("telemetry")
	hbConn := b.NewConnection("heartbeat")

	println("[main] starting services ...")
	heartbeat.Start(ctx, hbConn, 5*time.Second)
	go telemetry.Run(ctx, telConn, uart, telemetry.Config{
		Match: bus.T("envmon", "#"),
	})

	envmon.Run(ctx, svcConn, envmon.NewDHTSource(&sensor), &panel)
}
