package publish

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/sensortag-sheets/sensortag-sheets/sensortag"
)

// MessageWriter is the subset of kafka.Writer used by the Kafka sink.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Kafka struct {
	writer MessageWriter
}

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (k *Kafka) Name() string {
	return "kafka"
}

// Publish writes the reading as a JSON message keyed by the SensorTag address so that readings from one
// tag stay ordered on a single partition.
func (k *Kafka) Publish(ctx context.Context, reading sensortag.Reading) error {
	b, err := json.Marshal(NewMessage(reading))
	if err != nil {
		return err
	}

	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(reading.Address),
		Value: b,
		Time:  reading.Timestamp,
	})
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
