package sensortag

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
	"tinygo.org/x/bluetooth"
)

type characteristic struct {
	value    []byte
	writes   [][]byte
	err      error
	writeErr error
}

func (c *characteristic) Read(data []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}

	return copy(data, c.value), nil
}

func (c *characteristic) WriteWithoutResponse(p []byte) (int, error) {
	c.writes = append(c.writes, append([]byte{}, p...))

	if c.writeErr != nil && p[0] == 0x01 {
		return 0, c.writeErr
	}

	return len(p), nil
}

type fakePeripheral struct {
	characteristics map[key]*characteristic
	disconnected    int
}

func (p *fakePeripheral) Characteristic(service, char bluetooth.UUID) (Characteristic, error) {
	if c, ok := p.characteristics[key{service, char}]; ok {
		return c, nil
	}

	return nil, fmt.Errorf("characteristic %v not found", char)
}

func (p *fakePeripheral) Disconnect() error {
	p.disconnected++
	return nil
}

type fakeDialer struct {
	peripheral *fakePeripheral
	dialed     int
	err        error
}

func (d *fakeDialer) Dial(ctx context.Context, address string) (Peripheral, error) {
	d.dialed++
	if d.err != nil {
		return nil, d.err
	}

	return d.peripheral, nil
}

func newFakePeripheral() *fakePeripheral {
	values := map[bluetooth.UUID][]byte{
		IRTemperatureData: {0x80, 0x0c, 0x40, 0x0b},
		HumidityData:      {0x66, 0x66, 0x00, 0x80},
		BarometerData:     {0x29, 0x09, 0x00, 0xcd, 0x8b, 0x01},
		LuxometerData:     {0xe8, 0x33},
	}

	p := fakePeripheral{
		characteristics: map[key]*characteristic{},
	}

	for _, s := range sensors {
		p.characteristics[key{s.service, s.data}] = &characteristic{value: values[s.data]}
		p.characteristics[key{s.service, s.config}] = &characteristic{}
	}

	return &p
}

func TestRead(t *testing.T) {
	expected := Reading{
		Address:      "A0:E6:F8:AE:F3:01",
		AmbientTemp:  22.5,
		ObjectTemp:   25.0,
		HumidityTemp: ptr(26.0),
		Humidity:     ptr(50.0),
		BaroTemp:     23.45,
		Pressure:     1013.25,
		Light:        80.0,
	}

	p := newFakePeripheral()
	tag := New("A0:E6:F8:AE:F3:01", &fakeDialer{peripheral: p}, zerolog.Nop())
	tag.warmup = 0

	if err := tag.Connect(context.Background()); err != nil {
		t.Fatalf("Unexpected error connecting to SensorTag (%v)", err)
	}

	reading, err := tag.Read(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error reading SensorTag (%v)", err)
	}

	if reading.Timestamp.IsZero() {
		t.Errorf("Reading timestamp not set")
	}

	reading.Timestamp = expected.Timestamp
	if !reflect.DeepEqual(reading, expected) {
		t.Errorf("Incorrect reading\n   expected: %+v\n   got:      %+v\n", expected, reading)
	}

	for _, s := range sensors {
		c := p.characteristics[key{s.service, s.config}]
		if !reflect.DeepEqual(c.writes, [][]byte{{0x01}, {0x00}}) {
			t.Errorf("Incorrect %v configuration writes - expected:%v, got:%v", s.name, [][]byte{{0x01}, {0x00}}, c.writes)
		}
	}
}

func TestReadDisablesSensorsOnError(t *testing.T) {
	p := newFakePeripheral()
	p.characteristics[key{BarometerService, BarometerData}].err = errors.New("GATT error")

	tag := New("A0:E6:F8:AE:F3:01", &fakeDialer{peripheral: p}, zerolog.Nop())
	tag.warmup = 0

	if err := tag.Connect(context.Background()); err != nil {
		t.Fatalf("Unexpected error connecting to SensorTag (%v)", err)
	}

	if _, err := tag.Read(context.Background()); err == nil {
		t.Fatalf("Expected error reading SensorTag, got %v", err)
	}

	c := p.characteristics[key{LuxometerService, LuxometerConfig}]
	if len(c.writes) != 2 || c.writes[1][0] != 0x00 {
		t.Errorf("Sensors not disabled after read error - writes:%v", c.writes)
	}
}

func TestReadDisablesSensorsWhenEnableFails(t *testing.T) {
	p := newFakePeripheral()
	p.characteristics[key{BarometerService, BarometerConfig}].writeErr = errors.New("GATT error")

	tag := New("A0:E6:F8:AE:F3:01", &fakeDialer{peripheral: p}, zerolog.Nop())
	tag.warmup = 0

	if err := tag.Connect(context.Background()); err != nil {
		t.Fatalf("Unexpected error connecting to SensorTag (%v)", err)
	}

	if _, err := tag.Read(context.Background()); err == nil {
		t.Fatalf("Expected error reading SensorTag, got %v", err)
	}

	for _, k := range []key{{IRTemperatureService, IRTemperatureConfig}, {HumidityService, HumidityConfig}} {
		c := p.characteristics[k]
		if !reflect.DeepEqual(c.writes, [][]byte{{0x01}, {0x00}}) {
			t.Errorf("Sensor not disabled after enable error - expected:%v, got:%v", [][]byte{{0x01}, {0x00}}, c.writes)
		}
	}
}

func TestReadWithoutConnect(t *testing.T) {
	tag := New("A0:E6:F8:AE:F3:01", &fakeDialer{peripheral: newFakePeripheral()}, zerolog.Nop())

	if _, err := tag.Read(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
}

func TestConnectWithMissingCharacteristic(t *testing.T) {
	p := newFakePeripheral()
	delete(p.characteristics, key{HumidityService, HumidityConfig})

	tag := New("A0:E6:F8:AE:F3:01", &fakeDialer{peripheral: p}, zerolog.Nop())

	if err := tag.Connect(context.Background()); err == nil {
		t.Fatalf("Expected error connecting to incomplete SensorTag, got %v", err)
	}

	if p.disconnected != 1 {
		t.Errorf("Incomplete SensorTag not disconnected - disconnects:%v", p.disconnected)
	}
}

func TestReconnect(t *testing.T) {
	p := newFakePeripheral()
	dialer := fakeDialer{peripheral: p}
	tag := New("A0:E6:F8:AE:F3:01", &dialer, zerolog.Nop())

	if err := tag.Connect(context.Background()); err != nil {
		t.Fatalf("Unexpected error connecting to SensorTag (%v)", err)
	}

	if err := tag.Reconnect(context.Background()); err != nil {
		t.Fatalf("Unexpected error reconnecting to SensorTag (%v)", err)
	}

	if dialer.dialed != 2 {
		t.Errorf("Incorrect number of dials - expected:%v, got:%v", 2, dialer.dialed)
	}

	if p.disconnected != 1 {
		t.Errorf("Incorrect number of disconnects - expected:%v, got:%v", 1, p.disconnected)
	}
}

func TestReadCancelled(t *testing.T) {
	tag := New("A0:E6:F8:AE:F3:01", &fakeDialer{peripheral: newFakePeripheral()}, zerolog.Nop())

	if err := tag.Connect(context.Background()); err != nil {
		t.Fatalf("Unexpected error connecting to SensorTag (%v)", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := tag.Read(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
