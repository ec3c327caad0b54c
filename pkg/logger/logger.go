package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	ServiceKey   contextKey = "service"
)

var defaultLogger zerolog.Logger

func init() {
	level := zerolog.InfoLevel
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = zerolog.DebugLevel
	}
	defaultLogger = zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
}

// Options configure the process logger once the config is loaded.
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	Service    string
}

// Setup replaces the default logger. When File is set, records are written
// to stdout and to a size-rotated file.
func Setup(opts Options) {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if opts.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		})
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	defaultLogger = ctx.Logger()
}

// SetOutput is used by tests to capture log lines.
func SetOutput(w io.Writer) {
	defaultLogger = defaultLogger.Output(w)
}

func Default() *zerolog.Logger {
	return &defaultLogger
}

func WithContext(ctx context.Context) *zerolog.Logger {
	c := defaultLogger.With()

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		c = c.Str("request_id", requestID)
	}

	if userID, ok := ctx.Value(UserIDKey).(string); ok {
		c = c.Str("user_id", userID)
	}

	if service, ok := ctx.Value(ServiceKey).(string); ok {
		c = c.Str("service", service)
	}

	l := c.Logger()
	return &l
}

func Info(msg string, args ...any) {
	defaultLogger.Info().Fields(args).Msg(msg)
}

func Error(msg string, args ...any) {
	defaultLogger.Error().Fields(args).Msg(msg)
}

func Debug(msg string, args ...any) {
	defaultLogger.Debug().Fields(args).Msg(msg)
}

func Warn(msg string, args ...any) {
	defaultLogger.Warn().Fields(args).Msg(msg)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Info().Fields(args).Msg(msg)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Error().Fields(args).Msg(msg)
}

func DebugContext(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Debug().Fields(args).Msg(msg)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Warn().Fields(args).Msg(msg)
}
