package logging

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with the service's defaults.
type Logger struct {
	*slog.Logger
}

// Options controls handler construction. Zero values mean JSON to stdout at
// info level, tagged with the service name.
type Options struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is "json" or "text". Webhook traffic is machine-scraped, so
	// JSON is the default; text is for local development.
	Format string
	// Writer overrides the output destination (for tests).
	Writer io.Writer
	// Service is attached to every record; defaults to "patient-connect".
	Service string
}

// New creates a JSON logger at the given level with service defaults.
func New(level string) *Logger {
	return NewWithOptions(Options{Level: level})
}

// NewWithOptions creates a logger from explicit options.
func NewWithOptions(opts Options) *Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	service := opts.Service
	if service == "" {
		service = "patient-connect"
	}

	handlerOpts := &slog.HandlerOptions{Level: parseLevel(opts.Level)}

	var handler slog.Handler
	if opts.Format == "text" {
		handler = slog.NewTextHandler(w, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}

	return &Logger{Logger: slog.New(handler).With("service", service)}
}

// Default returns a logger with default settings.
func Default() *Logger {
	return New("info")
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
