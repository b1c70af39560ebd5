package sensortag

import (
	"fmt"

	"tinygo.org/x/bluetooth"
)

// CC2650 sensors live under the TI vendor base UUID F000xxxx-0451-4000-B000-000000000000.
var (
	IRTemperatureService = vendorUUID(0xaa00)
	IRTemperatureData    = vendorUUID(0xaa01)
	IRTemperatureConfig  = vendorUUID(0xaa02)

	HumidityService = vendorUUID(0xaa20)
	HumidityData    = vendorUUID(0xaa21)
	HumidityConfig  = vendorUUID(0xaa22)

	BarometerService = vendorUUID(0xaa40)
	BarometerData    = vendorUUID(0xaa41)
	BarometerConfig  = vendorUUID(0xaa42)

	LuxometerService = vendorUUID(0xaa70)
	LuxometerData    = vendorUUID(0xaa71)
	LuxometerConfig  = vendorUUID(0xaa72)
)

// sensor groups the service, data and configuration characteristics of one SensorTag sensor.
type sensor struct {
	name    string
	service bluetooth.UUID
	data    bluetooth.UUID
	config  bluetooth.UUID
}

var sensors = []sensor{
	{"IR temperature", IRTemperatureService, IRTemperatureData, IRTemperatureConfig},
	{"humidity", HumidityService, HumidityData, HumidityConfig},
	{"barometer", BarometerService, BarometerData, BarometerConfig},
	{"luxometer", LuxometerService, LuxometerData, LuxometerConfig},
}

var (
	enable  = []byte{0x01}
	disable = []byte{0x00}
)

func vendorUUID(short uint16) bluetooth.UUID {
	uuid, err := bluetooth.ParseUUID(fmt.Sprintf("f000%04x-0451-4000-b000-000000000000", short))
	if err != nil {
		panic(err)
	}

	return uuid
}
