package sensortag

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Reading is one sample from every sensor on the tag. HumidityTemp and Humidity are nil when the value
// has been discarded as implausible.
type Reading struct {
	Address   string
	Timestamp time.Time

	// units: degrees Celsius
	AmbientTemp  float64
	ObjectTemp   float64
	HumidityTemp *float64
	BaroTemp     float64

	// units: % of relative humidity
	Humidity *float64

	// units: hPa
	Pressure float64

	// units: lux
	Light float64
}

// Sanitise discards the humidity sensor temperature when it is more than 2°C from the IR sensor ambient
// temperature and the relative humidity when it is outside 1-99%.
func (r Reading) Sanitise() Reading {
	if r.HumidityTemp != nil {
		if t := *r.HumidityTemp; t < r.AmbientTemp-2 || t > r.AmbientTemp+2 {
			r.HumidityTemp = nil
		}
	}

	if r.Humidity != nil {
		if h := *r.Humidity; h < 1 || h > 99 {
			r.Humidity = nil
		}
	}

	return r
}

func (r Reading) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Time:\t%v\n", r.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "IR reading:\t\t%v, temperature:\t%v\n", r.ObjectTemp, r.AmbientTemp)
	fmt.Fprintf(&b, "Humidity reading:\t%v, temperature:\t%v\n", format(r.Humidity), format(r.HumidityTemp))
	fmt.Fprintf(&b, "Barometer reading:\t%v, temperature:\t%v\n", r.Pressure, r.BaroTemp)
	fmt.Fprintf(&b, "Luxmeter reading:\t%v\n", r.Light)

	return b.String()
}

func format(v *float64) string {
	if v == nil {
		return "-"
	}

	return fmt.Sprintf("%v", *v)
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}

func ptr(v float64) *float64 {
	return &v
}
