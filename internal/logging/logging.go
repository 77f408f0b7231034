// Package logging builds the structured logger shared by the server and
// the command line tool.
package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// TimestampFormat is used for the "time" field of every entry.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// New returns a JSON logger writing to out at the given level name.
// Unknown or empty level names select info.
//
// The MCP server speaks JSON-RPC on stdout, so callers normally pass
// os.Stderr.
func New(level string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(ParseLevel(level))
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: TimestampFormat,
	})
	return logger
}

// ParseLevel maps a level name to a logrus level.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Discard returns a logger that drops everything. Constructors use it when
// they are given no logger.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
