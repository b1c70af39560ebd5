package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"}).
	With().
	Timestamp().
	Logger().
	Level(zerolog.InfoLevel)

func setDebug(debug bool) {
	if debug {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}
}

// component returns a logger for one of the library packages.
func component(name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

func debugf(format string, args ...any) {
	logger.Debug().Msg(fmt.Sprintf(format, args...))
}

func infof(format string, args ...any) {
	logger.Info().Msg(fmt.Sprintf(format, args...))
}

func warnf(format string, args ...any) {
	logger.Warn().Msg(fmt.Sprintf(format, args...))
}

func errorf(format string, args ...any) {
	logger.Error().Msg(fmt.Sprintf(format, args...))
}
