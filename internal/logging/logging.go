// Package logging builds the zap loggers used across semsearch.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/semsearch/pkg/types"
)

// Formats accepted by New
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New returns a logger writing to stderr at the given level ("debug", "info",
// "warn", "error") in console or json format.
func New(level, format string) (*zap.Logger, error) {
	return NewWithWriter(level, format, os.Stderr)
}

// NewWithWriter is New with an explicit destination. stdout stays free for
// command output and the MCP stdio transport.
func NewWithWriter(level, format string, w io.Writer) (*zap.Logger, error) {
	lvl, encoder, err := parse(level, format)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), zap.NewAtomicLevelAt(lvl))
	return zap.New(core), nil
}

// Validate reports whether New would accept level and format
func Validate(level, format string) error {
	_, _, err := parse(level, format)
	return err
}

func parse(level, format string) (zapcore.Level, zapcore.Encoder, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return lvl, nil, fmt.Errorf("%w: invalid log level %q", types.ErrConfiguration, level)
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatConsole:
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.EncodeCaller = nil
		return lvl, zapcore.NewConsoleEncoder(cfg), nil
	case FormatJSON:
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return lvl, zapcore.NewJSONEncoder(cfg), nil
	default:
		return lvl, nil, fmt.Errorf("%w: invalid log format %q (want console or json)", types.ErrConfiguration, format)
	}
}
