// services/envmon/adaptor_dht.go
package envmon

import (
	"envmon-go/drivers/dht"
	"envmon-go/errcode"
)

// dhtReader is the slice of the DHT driver the adaptor needs.
type dhtReader interface {
	Read() error
	Celsius() float32
	RelHumidity() float32
}

// DHTSource adapts the DHT driver to poll.Source.
//
// One driver Read yields both channels, so ReadTemperature performs the
// measurement and caches the pair; ReadHumidity reports the humidity
// from that same measurement. The machine reads temperature first each
// cycle, which keeps the pair coherent.
//
// Driver errors are not propagated: both channels go NaN, which the
// machine displays as a disconnected sensor. ErrTooSoon keeps the
// previous pair; the sensor is fine, the cycle just landed inside the
// sensor's own minimum interval.
type DHTSource struct {
	dev   dhtReader
	temp  float32
	hum   float32
	fault errcode.Code
}

// NewDHTSource builds a source over a configured DHT device.
func NewDHTSource(dev *dht.Device) *DHTSource {
	return newDHTSource(dev)
}

func newDHTSource(dev dhtReader) *DHTSource {
	return &DHTSource{dev: dev, temp: nanf(), hum: nanf(), fault: errcode.SensorUnavailable}
}

func (s *DHTSource) ReadTemperature() float32 {
	switch err := s.dev.Read(); err {
	case nil:
		s.temp = s.dev.Celsius()
		s.hum = s.dev.RelHumidity()
		s.fault = errcode.OK
	case dht.ErrTooSoon:
		// keep the cached pair
	default:
		s.temp = nanf()
		s.hum = nanf()
		s.fault = errcode.Of(err)
	}
	return s.temp
}

func (s *DHTSource) ReadHumidity() float32 { return s.hum }

// Fault reports the failure class of the last measurement, or OK.
func (s *DHTSource) Fault() errcode.Code { return s.fault }

func nanf() float32 {
	var z float32
	return z / z
}
