package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Options selects level, format and destination for New.
type Options struct {
	Level  string
	Format string // text or json
	Out    io.Writer
	Debug  bool // forces debug level and caller reporting
}

// New builds a logrus logger from Options. Unknown levels fall back to info.
func New(o Options) (*logrus.Logger, error) {
	l := logrus.New()
	if o.Out != nil {
		l.SetOutput(o.Out)
	} else {
		l.SetOutput(os.Stderr)
	}

	level := logrus.InfoLevel
	if o.Level != "" {
		lv, err := logrus.ParseLevel(o.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = lv
	}
	if o.Debug {
		level = logrus.DebugLevel
		l.SetReportCaller(true)
	}
	l.SetLevel(level)

	switch strings.ToLower(o.Format) {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: shortCaller,
		})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: shortCaller,
		})
	default:
		return nil, fmt.Errorf("unsupported log format: %s", o.Format)
	}
	return l, nil
}

// Discard returns a logger that drops everything, for tests and library defaults.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func shortCaller(f *runtime.Frame) (string, string) {
	return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
}
