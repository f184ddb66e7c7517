// File: log/log.go
// Package log is the process-wide structured logger. Every event is
// stamped with the current thread (worker) and fiber name so log lines
// can be attributed to the execution context that produced them.

package log

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pmconrad/fc/fiber"
)

type contextHook struct{}

func (contextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Str("thread", fiber.GetThreadName())
	e.Str("fiber", fiber.GetFiberName())
}

var (
	mu   sync.RWMutex
	base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().Logger().Hook(contextHook{})
)

// Logger returns the process logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// For returns a logger tagged with a component name.
func For(component string) zerolog.Logger {
	return Logger().With().Str("component", component).Logger()
}

// SetOutput redirects the process logger.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base = zerolog.New(w).With().Timestamp().Logger().Hook(contextHook{})
}

// SetLevel adjusts the global level ("trace".."disabled").
func SetLevel(level string) error {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(l)
	return nil
}

// FileWriter opens an append-mode log file.
func FileWriter(path string) (io.Writer, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
