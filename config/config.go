// Package config supplies the defaults for the command line options from the environment, optionally
// loaded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultEnv = ".env"

type Config struct {
	Address     string
	Credentials string
	Workdir     string
	URL         string
	Spreadsheet string
	Worksheet   string
	Interval    time.Duration
	Retention   uint
	Listen      string

	Influx struct {
		URL    string
		Token  string
		Org    string
		Bucket string
	}

	MQTT struct {
		Broker   string
		ClientID string
		Topic    string
	}

	Kafka struct {
		Brokers []string
		Topic   string
	}
}

// Load reads the .env file into the process environment (without overriding variables that are already
// set) and returns the configuration. A missing .env file is not an error.
func Load(file string) (*Config, error) {
	if file != "" {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return FromEnv()
}

// FromEnv returns the configuration defined by the current environment, falling back to the built-in
// defaults. Malformed numeric values are reported rather than replaced with the default.
func FromEnv() (*Config, error) {
	interval, err := duration("SENSORTAG_INTERVAL", 55*time.Second)
	if err != nil {
		return nil, err
	}

	retention, err := integer("SHEETS_RETENTION", 0)
	if err != nil {
		return nil, err
	}

	c := Config{
		Address:     get("SENSORTAG_ADDRESS", ""),
		Credentials: get("GOOGLE_CREDENTIALS", ""),
		Workdir:     get("SENSORTAG_WORKDIR", ""),
		URL:         get("SHEETS_URL", ""),
		Spreadsheet: get("SHEETS_SPREADSHEET", ""),
		Worksheet:   get("SHEETS_WORKSHEET", "data"),
		Interval:    interval,
		Retention:   uint(retention),
		Listen:      get("SENSORTAG_LISTEN", ""),
	}

	c.Influx.URL = get("INFLUXDB_URL", "")
	c.Influx.Token = get("INFLUXDB_TOKEN", "")
	c.Influx.Org = get("INFLUXDB_ORG", "")
	c.Influx.Bucket = get("INFLUXDB_BUCKET", "sensortag")

	c.MQTT.Broker = get("MQTT_BROKER", "")
	c.MQTT.ClientID = get("MQTT_CLIENT_ID", "sensortag-sheets")
	c.MQTT.Topic = get("MQTT_TOPIC", "sensortag/readings")

	c.Kafka.Brokers = list("KAFKA_BROKERS")
	c.Kafka.Topic = get("KAFKA_TOPIC", "sensortag.readings")

	return &c, nil
}

func get(key, defval string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}

	return defval
}

// duration accepts either a Go duration ("55s", "2m") or a number of seconds ("55", "0.5").
func duration(key string, defval time.Duration) (time.Duration, error) {
	v := get(key, "")
	if v == "" {
		return defval, nil
	}

	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d, nil
	}

	if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
		return time.Duration(f * float64(time.Second)), nil
	}

	return 0, fmt.Errorf("invalid %v '%v' - expected a duration e.g. 55s", key, v)
}

func integer(key string, defval int) (int, error) {
	v := get(key, "")
	if v == "" {
		return defval, nil
	}

	if i, err := strconv.Atoi(v); err == nil && i >= 0 {
		return i, nil
	}

	return 0, fmt.Errorf("invalid %v '%v' - expected a whole number", key, v)
}

func list(key string) []string {
	return Split(get(key, ""))
}

// Split returns the non-blank items of a comma separated list.
func Split(s string) []string {
	l := []string{}
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			l = append(l, v)
		}
	}

	return l
}
