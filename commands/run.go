package commands

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sensortag-sheets/sensortag-sheets/config"
	"github.com/sensortag-sheets/sensortag-sheets/httpd"
	"github.com/sensortag-sheets/sensortag-sheets/metrics"
	"github.com/sensortag-sheets/sensortag-sheets/publish"
	"github.com/sensortag-sheets/sensortag-sheets/readings"
	"github.com/sensortag-sheets/sensortag-sheets/sensortag"
)

var RunCmd = Run{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
		worksheet:   "data",
	},

	interval: 55 * time.Second,
}

type Run struct {
	command
	address   string
	interval  time.Duration
	count     int
	retention uint
	listen    string

	influx struct {
		url    string
		token  string
		org    string
		bucket string
	}

	mqtt struct {
		broker   string
		clientID string
		topic    string
	}

	kafka struct {
		brokers string
		topic   string
	}
}

func (cmd *Run) Name() string {
	return "run"
}

func (cmd *Run) Description() string {
	return "Reads the SensorTag at regular intervals and appends the readings to a Google Sheets worksheet"
}

func (cmd *Run) Usage() string {
	return "--address <address> --credentials <file> --url <url>"
}

func (cmd *Run) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--env <file>] run [options] --address <address> --url <URL>\n", APP)
	fmt.Println()
	fmt.Println("  Reads the SensorTag temperature, humidity, pressure and light sensors at regular intervals and")
	fmt.Println("  appends the readings to a Google Sheets worksheet. Readings that cannot be appended are kept in")
	fmt.Println("  a local spool file and uploaded after the next successful append.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    sensortag-sheets run --address A0:E6:F8:AE:F3:01 \`)
	fmt.Println(`                         --credentials "credentials.json" \`)
	fmt.Println(`                         --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms"`)
	fmt.Println()
	fmt.Println(`    sensortag-sheets --debug run --address A0:E6:F8:AE:F3:01 --spreadsheet raspberry-pi-sensortag --listen :8080`)
	fmt.Println()
}

func (cmd *Run) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("run")

	flagset.StringVar(&cmd.address, "address", cmd.address, "SensorTag Bluetooth address e.g. A0:E6:F8:AE:F3:01")
	flagset.DurationVar(&cmd.interval, "interval", cmd.interval, "Interval between readings")
	flagset.IntVar(&cmd.count, "count", cmd.count, "Stops after appending this many readings (0 runs until interrupted)")
	flagset.UintVar(&cmd.retention, "retention", cmd.retention, "Deletes worksheet rows older than this many days (0 keeps everything)")
	flagset.StringVar(&cmd.listen, "listen", cmd.listen, "Address for the status server e.g. :8080")
	flagset.StringVar(&cmd.influx.url, "influxdb-url", cmd.influx.url, "InfluxDB server URL")
	flagset.StringVar(&cmd.influx.token, "influxdb-token", cmd.influx.token, "InfluxDB API token")
	flagset.StringVar(&cmd.influx.org, "influxdb-org", cmd.influx.org, "InfluxDB organisation")
	flagset.StringVar(&cmd.influx.bucket, "influxdb-bucket", cmd.influx.bucket, "InfluxDB bucket")
	flagset.StringVar(&cmd.mqtt.broker, "mqtt-broker", cmd.mqtt.broker, "MQTT broker e.g. tcp://localhost:1883")
	flagset.StringVar(&cmd.mqtt.clientID, "mqtt-client-id", cmd.mqtt.clientID, "MQTT client ID")
	flagset.StringVar(&cmd.mqtt.topic, "mqtt-topic", cmd.mqtt.topic, "MQTT topic")
	flagset.StringVar(&cmd.kafka.brokers, "kafka-brokers", cmd.kafka.brokers, "Comma separated list of Kafka brokers")
	flagset.StringVar(&cmd.kafka.topic, "kafka-topic", cmd.kafka.topic, "Kafka topic")

	return flagset
}

func (cmd *Run) configure(c *config.Config) {
	cmd.command.configure(c)

	cmd.address = c.Address
	cmd.interval = c.Interval
	cmd.retention = c.Retention
	cmd.listen = c.Listen

	cmd.influx.url = c.Influx.URL
	cmd.influx.token = c.Influx.Token
	cmd.influx.org = c.Influx.Org
	cmd.influx.bucket = c.Influx.Bucket

	cmd.mqtt.broker = c.MQTT.Broker
	cmd.mqtt.clientID = c.MQTT.ClientID
	cmd.mqtt.topic = c.MQTT.Topic

	cmd.kafka.brokers = strings.Join(c.Kafka.Brokers, ",")
	cmd.kafka.topic = c.Kafka.Topic
}

func (cmd *Run) Execute(args ...any) error {
	ctx, _ := arguments(args...)

	if strings.TrimSpace(cmd.address) == "" {
		return fmt.Errorf("--address is a required option")
	}

	if cmd.interval <= 0 {
		return fmt.Errorf("invalid --interval (%v)", cmd.interval)
	}

	if cmd.count < 0 {
		return fmt.Errorf("invalid --count (%v)", cmd.count)
	}

	if err := cmd.validate(); err != nil {
		return err
	}

	st := sensortag.New(cmd.address, sensortag.NewBLE(component("ble")), component("sensortag"))

	infof("connecting to SensorTag %v", cmd.address)
	if err := st.Connect(ctx); err != nil {
		return err
	}

	defer st.Disconnect()

	infof("connected to SensorTag %v", cmd.address)

	ws, err := cmd.open(ctx)
	if err != nil {
		return err
	}

	infof("logged in to worksheet '%v'", ws.Title())

	m := metrics.New()

	publisher := publish.NewPublisher(cmd.sinks(ctx), m.Published, component("publish"))
	defer publisher.Close()

	server := httpd.New(component("httpd"))
	if cmd.listen != "" {
		go func() {
			if err := server.Run(ctx, cmd.listen, m.Registry); err != nil {
				errorf("status server %v", err)
			}
		}()
	}

	l := loop{
		tag:   st,
		sheet: ws,
		login: func(ctx context.Context) (sheet, error) {
			return cmd.open(ctx)
		},
		spool: &spool{
			file: filepath.Join(cmd.workdir, "spool.tsv"),
		},
		publisher: publisher,
		metrics:   m,
		latest:    server.Update,
		interval:  cmd.interval,
		count:     cmd.count,
		retention: time.Duration(cmd.retention) * 24 * time.Hour,
	}

	return l.run(ctx)
}

// sinks creates the secondary sinks enabled by the command line options. A sink that cannot be created
// is logged and left out.
func (cmd *Run) sinks(ctx context.Context) []publish.Sink {
	sinks := []publish.Sink{}

	if cmd.influx.url != "" {
		if influx, err := publish.NewInflux(ctx, cmd.influx.url, cmd.influx.token, cmd.influx.org, cmd.influx.bucket); err != nil {
			warnf("not publishing readings to InfluxDB %v (%v)", cmd.influx.url, err)
		} else {
			infof("publishing readings to InfluxDB %v", cmd.influx.url)
			sinks = append(sinks, influx)
		}
	}

	if cmd.mqtt.broker != "" {
		if mqtt, err := publish.NewMQTT(cmd.mqtt.broker, cmd.mqtt.clientID, cmd.mqtt.topic); err != nil {
			warnf("not publishing readings to MQTT broker %v (%v)", cmd.mqtt.broker, err)
		} else {
			infof("publishing readings to MQTT broker %v", cmd.mqtt.broker)
			sinks = append(sinks, mqtt)
		}
	}

	if brokers := config.Split(cmd.kafka.brokers); len(brokers) > 0 {
		infof("publishing readings to Kafka %v", brokers)
		sinks = append(sinks, publish.NewKafka(brokers, cmd.kafka.topic))
	}

	return sinks
}

type tag interface {
	Read(ctx context.Context) (sensortag.Reading, error)
	Reconnect(ctx context.Context) error
}

type sheet interface {
	Title() string
	Index() map[string]int
	Append(ctx context.Context, rows [][]any) error
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

type loop struct {
	tag       tag
	sheet     sheet
	login     func(ctx context.Context) (sheet, error)
	spool     *spool
	publisher *publish.Publisher
	metrics   *metrics.Metrics
	latest    func(sensortag.Reading)
	interval  time.Duration
	count     int
	retention time.Duration
	pruned    time.Time
	now       func() time.Time
}

const pruneInterval = 24 * time.Hour

func (l *loop) run(ctx context.Context) error {
	appended := 0

	for l.count == 0 || appended < l.count {
		if ctx.Err() != nil {
			return nil
		}

		reading, err := l.tag.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			warnf("%v", err)
			warnf("SensorTag disconnected, reconnecting")
			l.metrics.ReadFailed()

			if err := l.tag.Reconnect(ctx); err != nil {
				return fmt.Errorf("error reconnecting to SensorTag (%w)", err)
			}

			l.metrics.Reconnected()
			continue
		}

		infof("%v", reading)

		reading = reading.Sanitise()

		l.metrics.Reading(reading)
		if l.latest != nil {
			l.latest(reading)
		}

		if err := l.append(ctx, reading); err != nil {
			errorf("%v", err)

			if err := l.spool.Add(reading); err != nil {
				errorf("error spooling reading (%v)", err)
			} else {
				l.spooled()
			}

			if ctx.Err() != nil {
				return nil
			}

			infof("logging in to worksheet again")

			s, err := l.login(ctx)
			if err != nil {
				return fmt.Errorf("error logging in to worksheet (%w)", err)
			}

			l.sheet = s
			continue
		}

		appended++

		l.publisher.Publish(ctx, reading)
		l.prune(ctx)

		if l.count > 0 && appended >= l.count {
			break
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.interval):
		}
	}

	return nil
}

// append uploads any spooled readings followed by the current reading in a single request and clears
// the spool on success.
func (l *loop) append(ctx context.Context, reading sensortag.Reading) error {
	index := l.sheet.Index()
	rows := [][]any{}

	spooled, err := l.spool.Load()
	if err != nil {
		if bad, err2 := l.spool.Discard(); err2 != nil {
			warnf("ignoring unreadable spool file (%v)", err)
		} else {
			warnf("unreadable spool file moved to %v (%v)", bad, err)
		}

		spooled = nil
	}

	if spooled != nil {
		rows = append(rows, readings.Rows(spooled, index)...)
	}

	rows = append(rows, readings.Row(reading, index))

	err = l.sheet.Append(ctx, rows)
	l.metrics.Appended(err)

	if err != nil {
		return err
	}

	if spooled != nil {
		infof("uploaded %d spooled readings", len(spooled.Records))

		if err := l.spool.Clear(); err != nil {
			warnf("error clearing spool (%v)", err)
		}

		l.metrics.Spooled(0)
	}

	return nil
}

func (l *loop) spooled() {
	if table, err := l.spool.Load(); err == nil && table != nil {
		l.metrics.Spooled(len(table.Records))
	}
}

// prune deletes the worksheet rows older than the retention period, at most once a day.
func (l *loop) prune(ctx context.Context) {
	if l.retention <= 0 {
		return
	}

	now := time.Now()
	if l.now != nil {
		now = l.now()
	}

	if !l.pruned.IsZero() && now.Sub(l.pruned) < pruneInterval {
		return
	}

	l.pruned = now

	if deleted, err := l.sheet.Prune(ctx, now.Add(-l.retention)); err != nil {
		warnf("%v", err)
	} else if deleted > 0 {
		infof("deleted %d rows older than %v from worksheet '%v'", deleted, now.Add(-l.retention).Format(readings.TIMESTAMP), l.sheet.Title())
	}
}
