package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// MaskValue replaces values logged under sensitive keys
const MaskValue = "***REDACTED***"

// sensitiveKeys are attribute keys whose values never reach the log output
var sensitiveKeys = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"proxy-authorization": true,
	"password":            true,
	"secret":              true,
	"token":               true,
	"access_token":        true,
	"refresh_token":       true,
	"session":             true,
	"session_id":          true,
	"sid":                 true,
}

// Logger wraps zerolog with the key-value logging methods used across the service
type Logger struct {
	logger zerolog.Logger
}

// Options controls the output of a Logger
type Options struct {
	Level   string    // debug, info, warn, error
	Format  string    // "json" or "console"
	Output  io.Writer // defaults to os.Stdout
	Service string    // attached to every entry when set
}

// New creates a new Logger writing JSON lines to stdout at info level
func New() *Logger {
	return NewWithOptions(Options{Service: "scanner"})
}

// NewWithOptions creates a Logger with the given output settings
func NewWithOptions(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(opts.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}

	return &Logger{logger: ctx.Logger()}
}

// Nop returns a Logger that discards everything
func Nop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// With returns a child logger that attaches the given key-value pairs to every entry
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	ctx := l.logger.With()
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		ctx = ctx.Interface(key, sanitize(key, keysAndValues[i+1]))
	}
	return &Logger{logger: ctx.Logger()}
}

// Debug logs a debug message with structured key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(l.logger.Debug(), msg, keysAndValues...)
}

// Info logs an informational message with structured key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log(l.logger.Info(), msg, keysAndValues...)
}

// Warn logs a warning with structured key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(l.logger.Warn(), msg, keysAndValues...)
}

// Error logs an error message with structured key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.log(l.logger.Error(), msg, keysAndValues...)
}

// log attaches key-value pairs to the event and emits it.
// keysAndValues should be pairs like: "key1", value1, "key2", value2
func (l *Logger) log(event *zerolog.Event, msg string, keysAndValues ...interface{}) {
	if event == nil {
		return
	}

	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 >= len(keysAndValues) {
			break
		}
		key := fmt.Sprint(keysAndValues[i])
		value := sanitize(key, keysAndValues[i+1])

		switch v := value.(type) {
		case error:
			event = event.AnErr(key, v)
		case time.Duration:
			event = event.Dur(key, v)
		default:
			event = event.Interface(key, v)
		}
	}

	event.Msg(msg)
}

// sanitize masks the value when the key names a credential-like attribute
func sanitize(key string, value interface{}) interface{} {
	if sensitiveKeys[strings.ToLower(key)] {
		return MaskValue
	}
	return value
}
