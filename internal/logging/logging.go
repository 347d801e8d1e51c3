// Package logging builds the zap logger used by the command line tools and the slog view of it handed to the
// hub.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

const (
	FormatPlain = "plain"
	FormatJSON  = "json"
)

// Options selects the level and encoding of the logger.
type Options struct {
	Level  string
	Format string
}

// New returns a zap logger writing to w.
//
// The plain format writes the bare message, one per line, so hub output reads the same as the walkthrough it
// reproduces. The json format adds level, time and a run_id field unique to this logger.
func New(opts Options, w io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var encoder zapcore.Encoder
	switch opts.Format {
	case "", FormatPlain:
		encoder = zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			MessageKey: "msg",
		})
	case FormatJSON:
		encoder = zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			MessageKey:  "msg",
			LevelKey:    "level",
			TimeKey:     "ts",
			EncodeLevel: zapcore.LowercaseLevelEncoder,
			EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
				enc.AppendString(t.Format(time.RFC3339))
			},
			EncodeDuration: zapcore.MillisDurationEncoder,
		})
	default:
		return nil, fmt.Errorf("log format %q: want %q or %q", opts.Format, FormatPlain, FormatJSON)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), level)
	logger := zap.New(core)

	if opts.Format == FormatJSON {
		logger = logger.With(zap.String("run_id", uuid.NewString()))
	}
	return logger, nil
}

// Slog exposes logger through the log/slog API.
func Slog(logger *zap.Logger) *slog.Logger {
	return slog.New(zapslog.NewHandler(logger.Core()))
}
