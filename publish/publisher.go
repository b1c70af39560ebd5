package publish

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sensortag-sheets/sensortag-sheets/sensortag"
)

// Sink is a secondary destination for readings.
type Sink interface {
	Name() string
	Publish(ctx context.Context, reading sensortag.Reading) error
	Close() error
}

// Message is the JSON payload published to MQTT and Kafka. Discarded values are omitted.
type Message struct {
	ID           string    `json:"id"`
	Address      string    `json:"address"`
	Timestamp    time.Time `json:"timestamp"`
	AmbientTemp  float64   `json:"ambientTemp"`
	ObjectTemp   float64   `json:"objectTemp"`
	HumidityTemp *float64  `json:"humidityTemp,omitempty"`
	BaroTemp     float64   `json:"baroTemp"`
	Humidity     *float64  `json:"humidity,omitempty"`
	Pressure     float64   `json:"pressure"`
	Light        float64   `json:"light"`
}

func NewMessage(r sensortag.Reading) Message {
	return Message{
		ID:           uuid.NewString(),
		Address:      r.Address,
		Timestamp:    r.Timestamp,
		AmbientTemp:  r.AmbientTemp,
		ObjectTemp:   r.ObjectTemp,
		HumidityTemp: r.HumidityTemp,
		BaroTemp:     r.BaroTemp,
		Humidity:     r.Humidity,
		Pressure:     r.Pressure,
		Light:        r.Light,
	}
}

// Result is invoked once per sink after each publish, with nil on success.
type Result func(sink string, err error)

// Publisher fans readings out to a set of sinks. Each sink has its own breaker so that an unreachable
// broker is skipped rather than retried on every reading.
type Publisher struct {
	sinks    []Sink
	breakers []*Breaker
	timeout  time.Duration
	result   Result
	log      zerolog.Logger
}

const (
	DefaultMaxFailures  = 3
	DefaultResetTimeout = 5 * time.Minute
	DefaultTimeout      = 10 * time.Second
)

func NewPublisher(sinks []Sink, result Result, log zerolog.Logger) *Publisher {
	p := Publisher{
		sinks:    sinks,
		breakers: make([]*Breaker, len(sinks)),
		timeout:  DefaultTimeout,
		result:   result,
		log:      log,
	}

	for i, s := range sinks {
		p.breakers[i] = NewBreaker(s.Name(), DefaultMaxFailures, DefaultResetTimeout, log)
	}

	return &p
}

func (p *Publisher) Len() int {
	return len(p.sinks)
}

// Publish sends the reading to every sink. Errors are logged and reported through the result callback
// but never returned: the secondary sinks must not interrupt the worksheet logging.
func (p *Publisher) Publish(ctx context.Context, reading sensortag.Reading) {
	for i, sink := range p.sinks {
		err := p.breakers[i].Execute(ctx, func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, p.timeout)
			defer cancel()

			return sink.Publish(ctx, reading)
		})

		switch {
		case err == nil:
			p.log.Debug().Str("sink", sink.Name()).Msg("published")

		case errors.Is(err, ErrOpen):
			p.log.Debug().Str("sink", sink.Name()).Msg("skipped (breaker open)")

		default:
			p.log.Warn().Str("sink", sink.Name()).Err(err).Msg("publish failed")
		}

		if p.result != nil {
			p.result(sink.Name(), err)
		}
	}
}

func (p *Publisher) Close() {
	for _, sink := range p.sinks {
		if err := sink.Close(); err != nil {
			p.log.Warn().Str("sink", sink.Name()).Err(err).Msg("close failed")
		}
	}
}
