// Package log builds the logger used by strom binaries and tests.
// The engine itself takes any *slog.Logger via strom.WithLog and
// defaults to a null logger.
package log

import (
	"io"
	"log/slog"
	"os"

	"github.com/rs/zerolog"
)

// New returns a production logger: JSON to stderr when running inside
// Kubernetes, pretty console output otherwise. Console rendering goes
// through zerolog's ConsoleWriter, fed by slog's JSON handler; the
// zerolog field names are aligned with slog's so the writer picks up
// level, time and message correctly.
func New() *slog.Logger {
	var output io.Writer
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		output = os.Stderr
	} else {
		zerolog.TimestampFieldName = slog.TimeKey
		zerolog.LevelFieldName = slog.LevelKey
		zerolog.MessageFieldName = slog.MessageKey
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02T15:04:05.999Z07:00"}
	}

	return slog.New(slog.NewJSONHandler(output, nil))
}
