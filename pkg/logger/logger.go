// Package logger builds the process logger of the API on top of zerolog.
//
// main calls Init once; packages receive loggers derived with Component
// through their constructors rather than reaching for a global.
package logger

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Options describes the process logger.
type Options struct {
	Level   string    // zerolog level name; "warning" is accepted, anything unknown means info
	Pretty  bool      // console output for local development instead of JSON lines
	Service string    // attached to every entry as "service" when set
	Output  io.Writer // os.Stdout when nil
}

var root atomic.Pointer[zerolog.Logger]

// New builds a logger from opts without touching the process logger.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	fields := zerolog.New(out).Level(parseLevel(opts.Level)).With().Timestamp()
	if opts.Service != "" {
		fields = fields.Str("service", opts.Service)
	}
	return fields.Caller().Logger()
}

// Init installs the process logger on first call and returns it; later calls
// return the installed logger unchanged.
func Init(opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	l := New(opts)
	if root.CompareAndSwap(nil, &l) {
		zerolog.SetGlobalLevel(l.GetLevel())
	}
	return *root.Load()
}

// Get returns the process logger. It panics before Init.
func Get() zerolog.Logger {
	l := root.Load()
	if l == nil {
		panic("logger: Get called before Init")
	}
	return *l
}

// Component derives a logger tagged with the subsystem it serves.
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

// Reset uninstalls the process logger. Tests only.
func Reset() {
	root.Store(nil)
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}

func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
