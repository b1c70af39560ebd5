package sensortag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"tinygo.org/x/bluetooth"
)

var (
	ErrNotFound     = errors.New("SensorTag not found")
	ErrShortRead    = errors.New("short read")
	ErrNotConnected = errors.New("not connected")
)

// Characteristic is the subset of a GATT characteristic used to enable and sample a sensor.
type Characteristic interface {
	Read(data []byte) (int, error)
	WriteWithoutResponse(p []byte) (int, error)
}

// Peripheral is a connected SensorTag with its services already discovered.
type Peripheral interface {
	Characteristic(service, characteristic bluetooth.UUID) (Characteristic, error)
	Disconnect() error
}

// Dialer connects to a SensorTag by its BLE address.
type Dialer interface {
	Dial(ctx context.Context, address string) (Peripheral, error)
}

// DefaultWarmup is the delay between enabling the sensors and sampling them. Without it the first
// IR and humidity samples are often zero.
const DefaultWarmup = 1 * time.Second

type SensorTag struct {
	address    string
	dialer     Dialer
	warmup     time.Duration
	peripheral Peripheral
	log        zerolog.Logger
}

func New(address string, dialer Dialer, log zerolog.Logger) *SensorTag {
	return &SensorTag{
		address: address,
		dialer:  dialer,
		warmup:  DefaultWarmup,
		log:     log,
	}
}

func (t *SensorTag) Address() string {
	return t.address
}

func (t *SensorTag) Connect(ctx context.Context) error {
	t.log.Info().Str("address", t.address).Msg("connecting")

	p, err := t.dialer.Dial(ctx, t.address)
	if err != nil {
		return fmt.Errorf("unable to connect to SensorTag %v (%w)", t.address, err)
	}

	for _, s := range sensors {
		for _, c := range []bluetooth.UUID{s.data, s.config} {
			if _, err := p.Characteristic(s.service, c); err != nil {
				p.Disconnect()
				return fmt.Errorf("SensorTag %v has no %v characteristic %v (%w)", t.address, s.name, c, err)
			}
		}
	}

	t.peripheral = p
	t.log.Info().Str("address", t.address).Msg("connected")

	return nil
}

func (t *SensorTag) Reconnect(ctx context.Context) error {
	if t.peripheral != nil {
		if err := t.peripheral.Disconnect(); err != nil {
			t.log.Debug().Err(err).Msg("disconnect before reconnect")
		}

		t.peripheral = nil
	}

	return t.Connect(ctx)
}

func (t *SensorTag) Disconnect() error {
	if t.peripheral == nil {
		return nil
	}

	p := t.peripheral
	t.peripheral = nil

	return p.Disconnect()
}

// Read enables the sensors, waits for them to settle, samples them and disables them again
// to save the tag's battery.
func (t *SensorTag) Read(ctx context.Context) (Reading, error) {
	if t.peripheral == nil {
		return Reading{}, ErrNotConnected
	}

	defer func() {
		if err := t.configure(disable); err != nil {
			t.log.Warn().Err(err).Msg("unable to disable sensors")
		}
	}()

	if err := t.configure(enable); err != nil {
		return Reading{}, err
	}

	select {
	case <-ctx.Done():
		return Reading{}, ctx.Err()
	case <-time.After(t.warmup):
	}

	reading := Reading{
		Address:   t.address,
		Timestamp: time.Now(),
	}

	if data, err := t.sample(sensors[0]); err != nil {
		return Reading{}, err
	} else if object, ambient, err := DecodeIRTemperature(data); err != nil {
		return Reading{}, err
	} else {
		reading.ObjectTemp = round(Celsius(object))
		reading.AmbientTemp = round(Celsius(ambient))
	}

	if data, err := t.sample(sensors[1]); err != nil {
		return Reading{}, err
	} else if temperature, humidity, err := DecodeHumidity(data); err != nil {
		return Reading{}, err
	} else {
		reading.HumidityTemp = ptr(round(Celsius(temperature)))
		reading.Humidity = ptr(round(Percent(humidity)))
	}

	if data, err := t.sample(sensors[2]); err != nil {
		return Reading{}, err
	} else if temperature, pressure, err := DecodeBarometer(data); err != nil {
		return Reading{}, err
	} else {
		reading.BaroTemp = round(Celsius(temperature))
		reading.Pressure = round(Hectopascals(pressure))
	}

	if data, err := t.sample(sensors[3]); err != nil {
		return Reading{}, err
	} else if lux, err := DecodeLuxometer(data); err != nil {
		return Reading{}, err
	} else {
		reading.Light = round(lux)
	}

	t.log.Debug().
		Float64("ambient", reading.AmbientTemp).
		Float64("object", reading.ObjectTemp).
		Float64("pressure", reading.Pressure).
		Float64("light", reading.Light).
		Msg("sampled")

	return reading, nil
}

func (t *SensorTag) configure(value []byte) error {
	for _, s := range sensors {
		c, err := t.peripheral.Characteristic(s.service, s.config)
		if err != nil {
			return err
		}

		if _, err := c.WriteWithoutResponse(value); err != nil {
			return fmt.Errorf("error configuring %v sensor (%w)", s.name, err)
		}
	}

	return nil
}

func (t *SensorTag) sample(s sensor) ([]byte, error) {
	c, err := t.peripheral.Characteristic(s.service, s.data)
	if err != nil {
		return nil, err
	}

	buffer := make([]byte, 16)
	n, err := c.Read(buffer)
	if err != nil {
		return nil, fmt.Errorf("error reading %v sensor (%w)", s.name, err)
	}

	return buffer[:min(n, len(buffer))], nil
}
