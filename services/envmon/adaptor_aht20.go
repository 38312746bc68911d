// services/envmon/adaptor_aht20.go
package envmon

import (
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/aht20"
)

// AHT20Source adapts the upstream AHT20 driver to poll.Source, for
// boards wired with the I²C sensor instead of a DHT. Same error policy
// as DHTSource: a failed read turns both channels NaN.
type AHT20Source struct {
	dev   aht20.Device
	fault bool
}

// NewAHT20Source builds a source over an already-configured I²C bus.
func NewAHT20Source(bus drivers.I2C) *AHT20Source {
	s := &AHT20Source{dev: aht20.New(bus)}
	s.dev.Configure()
	return s
}

func (s *AHT20Source) ReadTemperature() float32 {
	if err := s.dev.Read(); err != nil {
		s.fault = true
		return nanf()
	}
	s.fault = false
	return s.dev.Celsius()
}

func (s *AHT20Source) ReadHumidity() float32 {
	if s.fault {
		return nanf()
	}
	return s.dev.RelHumidity()
}
