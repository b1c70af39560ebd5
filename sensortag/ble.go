package sensortag

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"tinygo.org/x/bluetooth"
)

// Advertisement is a peripheral seen while scanning.
type Advertisement struct {
	Address string
	RSSI    int16
	Name    string
}

// BLE connects to SensorTags through the host Bluetooth adapter.
type BLE struct {
	adapter *bluetooth.Adapter
	once    sync.Once
	err     error
	log     zerolog.Logger
}

type key struct {
	service        bluetooth.UUID
	characteristic bluetooth.UUID
}

type peripheral struct {
	device          bluetooth.Device
	characteristics map[key]Characteristic
}

func NewBLE(log zerolog.Logger) *BLE {
	return &BLE{
		adapter: bluetooth.DefaultAdapter,
		log:     log,
	}
}

func (b *BLE) enable() error {
	b.once.Do(func() {
		if err := b.adapter.Enable(); err != nil {
			b.err = fmt.Errorf("unable to enable BLE adapter (%w)", err)
		}
	})

	return b.err
}

// Dial scans for the peripheral with the given address, connects to it and discovers the SensorTag
// sensor services.
func (b *BLE) Dial(ctx context.Context, address string) (Peripheral, error) {
	if err := b.enable(); err != nil {
		return nil, err
	}

	result, err := b.find(ctx, address)
	if err != nil {
		return nil, err
	}

	device, err := b.adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, err
	}

	uuids := []bluetooth.UUID{}
	for _, s := range sensors {
		uuids = append(uuids, s.service)
	}

	services, err := device.DiscoverServices(uuids)
	if err != nil {
		device.Disconnect()
		return nil, fmt.Errorf("service discovery failed (%w)", err)
	}

	p := peripheral{
		device:          device,
		characteristics: map[key]Characteristic{},
	}

	for i := range services {
		chars, err := services[i].DiscoverCharacteristics(nil)
		if err != nil {
			device.Disconnect()
			return nil, fmt.Errorf("characteristic discovery failed for service %v (%w)", services[i].UUID(), err)
		}

		for j := range chars {
			k := key{
				service:        services[i].UUID(),
				characteristic: chars[j].UUID(),
			}

			p.characteristics[k] = &chars[j]
		}
	}

	b.log.Debug().Str("address", address).Int("characteristics", len(p.characteristics)).Msg("discovered")

	return &p, nil
}

func (b *BLE) find(ctx context.Context, address string) (bluetooth.ScanResult, error) {
	found := make(chan bluetooth.ScanResult, 1)
	failed := make(chan error, 1)

	go func() {
		err := b.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if strings.EqualFold(result.Address.String(), address) {
				adapter.StopScan()
				select {
				case found <- result:
				default:
				}
			}
		})

		if err != nil {
			failed <- err
		}
	}()

	select {
	case result := <-found:
		return result, nil

	case err := <-failed:
		return bluetooth.ScanResult{}, fmt.Errorf("scan failed (%w)", err)

	case <-ctx.Done():
		b.adapter.StopScan()
		return bluetooth.ScanResult{}, fmt.Errorf("%w: %v (%v)", ErrNotFound, address, ctx.Err())
	}
}

// Scan lists the SensorTags advertising within the timeout. If all is set every peripheral is listed.
func (b *BLE) Scan(ctx context.Context, timeout time.Duration, all bool) ([]Advertisement, error) {
	if err := b.enable(); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	seen := map[string]Advertisement{}
	failed := make(chan error, 1)

	go func() {
		err := b.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			name := result.LocalName()
			if !all && !strings.Contains(strings.ToLower(name), "sensortag") {
				return
			}

			mu.Lock()
			seen[result.Address.String()] = Advertisement{
				Address: result.Address.String(),
				RSSI:    result.RSSI,
				Name:    name,
			}
			mu.Unlock()
		})

		failed <- err
	}()

	select {
	case err := <-failed:
		if err != nil {
			return nil, fmt.Errorf("scan failed (%w)", err)
		}

	case <-ctx.Done():
		b.adapter.StopScan()

	case <-time.After(timeout):
		b.adapter.StopScan()
	}

	mu.Lock()
	defer mu.Unlock()

	list := []Advertisement{}
	for _, v := range seen {
		list = append(list, v)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Address < list[j].Address })

	return list, nil
}

func (p *peripheral) Characteristic(service, characteristic bluetooth.UUID) (Characteristic, error) {
	if c, ok := p.characteristics[key{service, characteristic}]; ok {
		return c, nil
	}

	return nil, fmt.Errorf("characteristic %v not found", characteristic)
}

func (p *peripheral) Disconnect() error {
	return p.device.Disconnect()
}
