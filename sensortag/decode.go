package sensortag

import (
	"encoding/binary"
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// DecodeIRTemperature converts a TMP007 sample into the object and ambient (die) temperatures.
func DecodeIRTemperature(data []byte) (object physic.Temperature, ambient physic.Temperature, err error) {
	if len(data) < 4 {
		return 0, 0, fmt.Errorf("IR temperature: %w (%d bytes)", ErrShortRead, len(data))
	}

	obj := int16(binary.LittleEndian.Uint16(data[0:2]))
	amb := int16(binary.LittleEndian.Uint16(data[2:4]))

	object = celsius(float64(obj>>2) * 0.03125)
	ambient = celsius(float64(amb>>2) * 0.03125)

	return object, ambient, nil
}

// DecodeHumidity converts an HDC1000 sample into temperature and relative humidity.
func DecodeHumidity(data []byte) (physic.Temperature, physic.RelativeHumidity, error) {
	if len(data) < 4 {
		return 0, 0, fmt.Errorf("humidity: %w (%d bytes)", ErrShortRead, len(data))
	}

	t := binary.LittleEndian.Uint16(data[0:2])
	h := binary.LittleEndian.Uint16(data[2:4])

	temperature := celsius(-40.0 + 165.0*float64(t)/65536.0)
	humidity := physic.RelativeHumidity(100.0 * float64(h) / 65536.0 * float64(physic.PercentRH))

	return temperature, humidity, nil
}

// DecodeBarometer converts a BMP280 sample (two 24-bit values) into temperature and pressure.
func DecodeBarometer(data []byte) (physic.Temperature, physic.Pressure, error) {
	if len(data) < 6 {
		return 0, 0, fmt.Errorf("barometer: %w (%d bytes)", ErrShortRead, len(data))
	}

	t := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16
	p := uint32(data[3]) | uint32(data[4])<<8 | uint32(data[5])<<16

	return celsius(float64(t) / 100.0), hectopascals(float64(p) / 100.0), nil
}

// DecodeLuxometer converts an OPT3001 sample (4-bit exponent, 12-bit mantissa) into lux.
func DecodeLuxometer(data []byte) (float64, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("luxometer: %w (%d bytes)", ErrShortRead, len(data))
	}

	raw := binary.LittleEndian.Uint16(data[0:2])
	m := uint32(raw & 0x0fff)
	e := uint32(raw&0xf000) >> 12

	return 0.01 * float64(m<<e), nil
}

func celsius(v float64) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(v*float64(physic.Celsius))
}

func hectopascals(v float64) physic.Pressure {
	return physic.Pressure(v * 100 * float64(physic.Pascal))
}

// Celsius returns t in degrees Celsius.
func Celsius(t physic.Temperature) float64 {
	return float64(t-physic.ZeroCelsius) / float64(physic.Celsius)
}

// Hectopascals returns p in hPa.
func Hectopascals(p physic.Pressure) float64 {
	return float64(p) / float64(100*physic.Pascal)
}

// Percent returns h in %RH.
func Percent(h physic.RelativeHumidity) float64 {
	return float64(h) / float64(physic.PercentRH)
}
