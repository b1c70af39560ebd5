package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/sensortag-sheets/sensortag-sheets/sensortag"
)

type MQTT struct {
	client mqtt.Client
	topic  string
}

func NewMQTT(broker, clientID, topic string) (*MQTT, error) {
	options := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(options)

	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, fmt.Errorf("timeout connecting to MQTT broker %v", broker)
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("error connecting to MQTT broker %v (%w)", broker, err)
	}

	return &MQTT{
		client: client,
		topic:  topic,
	}, nil
}

func (m *MQTT) Name() string {
	return "mqtt"
}

func (m *MQTT) Publish(ctx context.Context, reading sensortag.Reading) error {
	payload, err := json.Marshal(NewMessage(reading))
	if err != nil {
		return err
	}

	token := m.client.Publish(m.topic, 1, false, payload)

	select {
	case <-token.Done():
		return token.Error()

	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}
