package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"healthwatch/internal/config"
)

// New builds the process logger. Debug and verbose modes get a human
// readable console writer, everything else is JSON lines.
func New(cfg config.Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}

	if cfg.Debug || cfg.Verbose {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("mode", string(cfg.Mode)).
		Logger()
}

// Component returns a child logger tagged with the component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
