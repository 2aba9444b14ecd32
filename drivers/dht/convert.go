package dht

// Fixed-point conversions. Results are tenths of a unit.

// DeciRelHumidity decodes humidity from f.
//
// DHT11 sends an integral and a fractional (tenths) byte. DHT22 sends a
// 16-bit value in tenths of %RH.
func DeciRelHumidity(m Model, f Frame) int32 {
	if m == DHT11 {
		return int32(f[0])*10 + int32(f[1])
	}
	return int32(uint16(f[0])<<8 | uint16(f[1]))
}

// DeciCelsius decodes temperature from f.
//
// DHT11 sends an integral byte and a fractional byte whose bit 7 marks a
// negative value. DHT22 sends a 15-bit magnitude in tenths of °C with the
// sign in bit 15.
func DeciCelsius(m Model, f Frame) int32 {
	if m == DHT11 {
		v := int32(f[2])*10 + int32(f[3]&0x0F)
		if f[3]&0x80 != 0 {
			v = -v
		}
		return v
	}
	v := int32(uint16(f[2]&0x7F)<<8 | uint16(f[3]))
	if f[2]&0x80 != 0 {
		v = -v
	}
	return v
}
