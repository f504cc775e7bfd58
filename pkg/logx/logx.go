package logx

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a JSON logger in prod and a console logger otherwise.
func New(service, env string) zerolog.Logger {
	var w io.Writer = os.Stdout
	level := zerolog.DebugLevel
	if env == "prod" {
		level = zerolog.InfoLevel
	} else {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("service", service).Logger()
}
