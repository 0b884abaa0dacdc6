// Package logger provides the shared logger for verbose circuit tracing.
//
// The root logger uses github.com/rs/zerolog with a console writer. Tracing
// starts disabled; circuit.SetVerbose turns it on.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

var logger = zerolog.Nop()

// Enable turns on debug-level tracing to stdout.
func Enable() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	logger = zerolog.New(output).With().Timestamp().Logger().Level(zerolog.DebugLevel)
}

// Disable turns tracing back off.
func Disable() {
	logger = zerolog.Nop()
}

// Set allows a user to override the global logger.
func Set(l zerolog.Logger) {
	logger = l
}

// Logger returns the current global logger.
func Logger() zerolog.Logger {
	return logger
}
