package dht

import "tinygo.org/x/drivers"

var _ drivers.Sensor = (*Device)(nil)

// Update implements drivers.Sensor. A read is performed when temperature or
// humidity is requested; other measurements are ignored.
func (d *Device) Update(which drivers.Measurement) error {
	if which&(drivers.Temperature|drivers.Humidity) == 0 {
		return nil
	}
	_, err := d.Read()
	return err
}
