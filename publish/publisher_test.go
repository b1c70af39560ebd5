package publish

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/sensortag-sheets/sensortag-sheets/sensortag"
)

type sink struct {
	name      string
	err       error
	published []sensortag.Reading
	closed    bool
}

func (s *sink) Name() string {
	return s.name
}

func (s *sink) Publish(ctx context.Context, reading sensortag.Reading) error {
	if s.err != nil {
		return s.err
	}

	s.published = append(s.published, reading)

	return nil
}

func (s *sink) Close() error {
	s.closed = true
	return nil
}

type writer struct {
	messages []kafka.Message
}

func (w *writer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *writer) Close() error {
	return nil
}

func reading() sensortag.Reading {
	humidity := 45.2

	return sensortag.Reading{
		Address:     "A0:E6:F8:AE:F3:01",
		Timestamp:   time.Date(2024, time.March, 1, 10, 15, 0, 0, time.UTC),
		AmbientTemp: 22.5,
		ObjectTemp:  25.0,
		BaroTemp:    22.8,
		Humidity:    &humidity,
		Pressure:    1013.25,
		Light:       80.0,
	}
}

func TestPublish(t *testing.T) {
	results := map[string]error{}
	ok := sink{name: "ok"}
	failing := sink{name: "failing", err: errors.New("unreachable")}

	p := NewPublisher([]Sink{&ok, &failing}, func(name string, err error) { results[name] = err }, zerolog.Nop())

	p.Publish(context.Background(), reading())

	if !reflect.DeepEqual(ok.published, []sensortag.Reading{reading()}) {
		t.Errorf("Reading not published to sink - got:%v", ok.published)
	}

	if results["ok"] != nil {
		t.Errorf("Unexpected result for 'ok' sink (%v)", results["ok"])
	}

	if results["failing"] == nil {
		t.Errorf("Expected error result for 'failing' sink")
	}
}

func TestPublishSkipsOpenSink(t *testing.T) {
	results := []error{}
	failing := sink{name: "failing", err: errors.New("unreachable")}

	p := NewPublisher([]Sink{&failing}, func(name string, err error) { results = append(results, err) }, zerolog.Nop())

	for i := 0; i < DefaultMaxFailures+1; i++ {
		p.Publish(context.Background(), reading())
	}

	if len(results) != DefaultMaxFailures+1 {
		t.Fatalf("Incorrect number of results - expected:%v, got:%v", DefaultMaxFailures+1, len(results))
	}

	if !errors.Is(results[DefaultMaxFailures], ErrOpen) {
		t.Errorf("Expected ErrOpen once breaker has opened, got %v", results[DefaultMaxFailures])
	}
}

func TestClose(t *testing.T) {
	s := sink{name: "sink"}
	p := NewPublisher([]Sink{&s}, nil, zerolog.Nop())

	p.Close()

	if !s.closed {
		t.Errorf("Sink not closed")
	}
}

func TestKafkaPublish(t *testing.T) {
	w := writer{}
	k := Kafka{writer: &w}

	if err := k.Publish(context.Background(), reading()); err != nil {
		t.Fatalf("Unexpected error publishing to Kafka (%v)", err)
	}

	if len(w.messages) != 1 {
		t.Fatalf("Incorrect number of messages - expected:%v, got:%v", 1, len(w.messages))
	}

	if key := string(w.messages[0].Key); key != "A0:E6:F8:AE:F3:01" {
		t.Errorf("Incorrect message key - expected:%v, got:%v", "A0:E6:F8:AE:F3:01", key)
	}

	var message map[string]any
	if err := json.Unmarshal(w.messages[0].Value, &message); err != nil {
		t.Fatalf("Invalid message JSON (%v)", err)
	}

	if _, ok := message["humidityTemp"]; ok {
		t.Errorf("Discarded humidity temperature included in message: %v", message)
	}

	if message["humidity"] != 45.2 {
		t.Errorf("Incorrect humidity - expected:%v, got:%v", 45.2, message["humidity"])
	}

	if id, ok := message["id"].(string); !ok || id == "" {
		t.Errorf("Missing message ID: %v", message)
	}
}

func TestPoint(t *testing.T) {
	expected := map[string]any{
		"ambient_temp": 22.5,
		"object_temp":  25.0,
		"baro_temp":    22.8,
		"humidity":     45.2,
		"pressure":     1013.25,
		"light":        80.0,
	}

	p := Point(reading())

	if p.Name() != MEASUREMENT {
		t.Errorf("Incorrect measurement - expected:%v, got:%v", MEASUREMENT, p.Name())
	}

	fields := map[string]any{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}

	if !reflect.DeepEqual(fields, expected) {
		t.Errorf("Incorrect fields\n   expected: %v\n   got:      %v\n", expected, fields)
	}

	if tags := p.TagList(); len(tags) != 1 || tags[0].Key != "address" || tags[0].Value != "A0:E6:F8:AE:F3:01" {
		t.Errorf("Incorrect tags: %v", tags)
	}
}
