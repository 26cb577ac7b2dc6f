// Package log provides the Debug and Info loggers used across hkpair.
package log

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Logger prints at a fixed level through the shared zerolog logger.
type Logger struct {
	level zerolog.Level
}

var (
	Debug = &Logger{level: zerolog.DebugLevel}
	Info  = &Logger{level: zerolog.InfoLevel}
)

var root atomic.Value // zerolog.Logger

func init() {
	SetOutput(os.Stderr, "text")
	SetLevel("info")
}

// SetOutput replaces the writer. Any format other than "json" gets a
// console writer.
func SetOutput(w io.Writer, format string) {
	if format != "json" {
		w = zerolog.ConsoleWriter{
			Out: w, TimeFormat: "15:04:05.000",
			NoColor: w != os.Stderr || format == "text",
		}
	}

	lvl := zerolog.InfoLevel
	if l, ok := root.Load().(zerolog.Logger); ok {
		lvl = l.GetLevel()
	}

	root.Store(zerolog.New(w).With().Timestamp().Logger().Level(lvl))
}

// SetLevel accepts zerolog level names. Unknown names fall back to info.
func SetLevel(s string) {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	root.Store(Root().Level(lvl))
}

// Root returns the underlying zerolog logger for structured fields.
func Root() zerolog.Logger {
	return root.Load().(zerolog.Logger)
}

func (l *Logger) Println(v ...any) {
	l.msg(fmt.Sprintln(v...))
}

func (l *Logger) Printf(format string, v ...any) {
	l.msg(fmt.Sprintf(format, v...))
}

// Err logs err with a message.
func (l *Logger) Err(err error, msg string) {
	r := Root()
	r.WithLevel(l.level).Err(err).Msg(msg)
}

func (l *Logger) msg(s string) {
	if n := len(s); n > 0 && s[n-1] == '\n' {
		s = s[:n-1]
	}
	r := Root()
	r.WithLevel(l.level).Msg(s)
}
