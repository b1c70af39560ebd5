package publish

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/sensortag-sheets/sensortag-sheets/sensortag"
)

// MEASUREMENT is the InfluxDB measurement name for SensorTag readings.
const MEASUREMENT = "sensortag"

type Influx struct {
	client influxdb2.Client
	writer api.WriteAPIBlocking
	url    string
}

func NewInflux(ctx context.Context, url, token, org, bucket string) (*Influx, error) {
	client := influxdb2.NewClient(url, token)

	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB (%w)", err)
	} else if health.Status != "pass" {
		client.Close()
		return nil, fmt.Errorf("InfluxDB health check failed (%v)", health.Status)
	}

	return &Influx{
		client: client,
		writer: client.WriteAPIBlocking(org, bucket),
		url:    url,
	}, nil
}

func (i *Influx) Name() string {
	return "influxdb"
}

func (i *Influx) Publish(ctx context.Context, reading sensortag.Reading) error {
	return i.writer.WritePoint(ctx, Point(reading))
}

func (i *Influx) Close() error {
	i.client.Close()
	return nil
}

// Point converts a reading to an InfluxDB point tagged with the SensorTag address.
func Point(reading sensortag.Reading) *write.Point {
	fields := map[string]any{
		"ambient_temp": reading.AmbientTemp,
		"object_temp":  reading.ObjectTemp,
		"baro_temp":    reading.BaroTemp,
		"pressure":     reading.Pressure,
		"light":        reading.Light,
	}

	if reading.HumidityTemp != nil {
		fields["humidity_temp"] = *reading.HumidityTemp
	}

	if reading.Humidity != nil {
		fields["humidity"] = *reading.Humidity
	}

	return influxdb2.NewPoint(MEASUREMENT, map[string]string{"address": reading.Address}, fields, reading.Timestamp)
}
