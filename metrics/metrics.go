// Package metrics holds the Prometheus instrumentation for the SensorTag logger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sensortag-sheets/sensortag-sheets/sensortag"
)

type Metrics struct {
	Registry *prometheus.Registry

	readings     prometheus.Counter
	readFailures prometheus.Counter
	reconnects   prometheus.Counter
	appends      *prometheus.CounterVec
	published    *prometheus.CounterVec
	spooled      prometheus.Gauge
	values       *prometheus.GaugeVec
}

func New() *Metrics {
	m := Metrics{
		Registry: prometheus.NewRegistry(),

		readings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sensortag",
			Name:      "readings_total",
			Help:      "SensorTag readings taken.",
		}),

		readFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sensortag",
			Name:      "read_failures_total",
			Help:      "SensorTag reads that failed.",
		}),

		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sensortag",
			Name:      "reconnects_total",
			Help:      "Reconnections to the SensorTag.",
		}),

		appends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sensortag",
			Name:      "sheet_appends_total",
			Help:      "Rows appended to the worksheet, by result.",
		}, []string{"result"}),

		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sensortag",
			Name:      "published_total",
			Help:      "Readings published to secondary sinks, by sink and result.",
		}, []string{"sink", "result"}),

		spooled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sensortag",
			Name:      "spooled_readings",
			Help:      "Readings waiting in the local spool file.",
		}),

		values: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sensortag",
			Name:      "value",
			Help:      "Latest SensorTag value, by field.",
		}, []string{"address", "field"}),
	}

	m.Registry.MustRegister(m.readings, m.readFailures, m.reconnects, m.appends, m.published, m.spooled, m.values)

	return &m
}

func (m *Metrics) Reading(r sensortag.Reading) {
	m.readings.Inc()

	m.values.WithLabelValues(r.Address, "ambient_temp").Set(r.AmbientTemp)
	m.values.WithLabelValues(r.Address, "object_temp").Set(r.ObjectTemp)
	m.values.WithLabelValues(r.Address, "baro_temp").Set(r.BaroTemp)
	m.values.WithLabelValues(r.Address, "pressure").Set(r.Pressure)
	m.values.WithLabelValues(r.Address, "light").Set(r.Light)

	if r.HumidityTemp != nil {
		m.values.WithLabelValues(r.Address, "humidity_temp").Set(*r.HumidityTemp)
	}

	if r.Humidity != nil {
		m.values.WithLabelValues(r.Address, "humidity").Set(*r.Humidity)
	}
}

func (m *Metrics) ReadFailed() {
	m.readFailures.Inc()
}

func (m *Metrics) Reconnected() {
	m.reconnects.Inc()
}

func (m *Metrics) Appended(err error) {
	m.appends.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) Published(sink string, err error) {
	m.published.WithLabelValues(sink, result(err)).Inc()
}

func (m *Metrics) Spooled(n int) {
	m.spooled.Set(float64(n))
}

func result(err error) string {
	if err != nil {
		return "error"
	}

	return "ok"
}
