// Copyright 2025 The upstreamkit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log provides a structured, leveled logger on top of zap.
//
// Log context is passed as alternating keys and values:
//
//	log.Info("Refreshed pool", "type", group, "upstreams", n)
//
// Setup must be called once at startup. Before that, the root logger discards
// everything.
package log

import (
	"fmt"
	"net/http"
	"os"
	"runtime/debug"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/upstreamkit/upstreamkit/pkg/private/serrors"
)

// Level of a log entry.
type Level zapcore.Level

const (
	DebugLevel = Level(zapcore.DebugLevel)
	InfoLevel  = Level(zapcore.InfoLevel)
	ErrorLevel = Level(zapcore.ErrorLevel)
)

// Logger describes the logger interface.
type Logger interface {
	New(ctx ...any) Logger
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Enabled(lvl Level) bool
}

var (
	root = &logger{logger: zap.NewNop()}
	// level is the dynamic level of the console core. It allows changing the
	// level at runtime, e.g. through an HTTP handler.
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Setup configures the root logger according to cfg. It should be called
// exactly once, before any goroutine uses the logger.
func Setup(cfg Config, opts ...Option) error {
	cfg.InitDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	o := applyOptions(opts)

	lvl, err := zapcore.ParseLevel(cfg.Console.Level)
	if err != nil {
		return serrors.Wrap("parsing console level", err, "level", cfg.Console.Level)
	}
	level.SetLevel(lvl)
	stacktraceLvl, err := zapcore.ParseLevel(cfg.Console.StacktraceLevel)
	if err != nil {
		return serrors.Wrap("parsing stacktrace level", err,
			"level", cfg.Console.StacktraceLevel)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	switch cfg.Console.Format {
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		if isatty.IsTerminal(os.Stderr.Fd()) {
			encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	zapOpts := []zap.Option{
		zap.AddStacktrace(stacktraceLvl),
		zap.AddCallerSkip(1),
	}
	if !cfg.Console.DisableCaller {
		zapOpts = append(zapOpts, zap.AddCaller())
	}
	zapOpts = append(zapOpts, o.zapOptions()...)

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)
	zl := zap.New(core, zapOpts...)
	root = &logger{logger: zl}
	// The zap global logger is set so that library code using zap.L() ends
	// up in the same sink.
	zap.ReplaceGlobals(zl)
	return nil
}

// SetLevel changes the console log level at runtime.
func SetLevel(lvl Level) {
	level.SetLevel(zapcore.Level(lvl))
}

// ConsoleLevel returns the console log level.
func ConsoleLevel() Level {
	return Level(level.Level())
}

// LevelHandler returns an HTTP handler that reports the console log level on
// GET and changes it on PUT. The body is JSON of the form {"level":"info"}.
func LevelHandler() http.Handler {
	return level
}

// Flush writes the buffered entries of the root logger.
func Flush() {
	_ = root.logger.Sync()
}

// HandlePanic catches panics and logs them with a stack trace. The panic is
// re-raised after logging. It must be deferred at the top of every goroutine.
func HandlePanic() {
	if msg := recover(); msg != nil {
		root.logger.Error("Panic", zap.Any("msg", msg), zap.ByteString("stack", debug.Stack()))
		Flush()
		panic(msg)
	}
}

// Root returns the root logger.
func Root() Logger {
	return root
}

// New creates a logger with the given context.
func New(ctx ...any) Logger {
	return root.New(ctx...)
}

// Debug logs at debug level.
func Debug(msg string, ctx ...any) {
	root.Debug(msg, ctx...)
}

// Info logs at info level.
func Info(msg string, ctx ...any) {
	root.Info(msg, ctx...)
}

// Error logs at error level.
func Error(msg string, ctx ...any) {
	root.Error(msg, ctx...)
}

// SafeNewLogger creates a logger with the given context if l is not nil.
func SafeNewLogger(l Logger, ctx ...any) Logger {
	if l == nil {
		return nil
	}
	return l.New(ctx...)
}

// SafeDebug logs at debug level if l is not nil.
func SafeDebug(l Logger, msg string, ctx ...any) {
	if l != nil {
		l.Debug(msg, ctx...)
	}
}

// SafeInfo logs at info level if l is not nil.
func SafeInfo(l Logger, msg string, ctx ...any) {
	if l != nil {
		l.Info(msg, ctx...)
	}
}

// SafeError logs at error level if l is not nil.
func SafeError(l Logger, msg string, ctx ...any) {
	if l != nil {
		l.Error(msg, ctx...)
	}
}

// FromZap wraps an existing zap logger.
func FromZap(zl *zap.Logger) Logger {
	return &logger{logger: zl}
}

type logger struct {
	logger *zap.Logger
}

func (l *logger) New(ctx ...any) Logger {
	return &logger{logger: l.logger.With(convertCtx(ctx)...)}
}

func (l *logger) Debug(msg string, ctx ...any) {
	l.logger.Debug(msg, convertCtx(ctx)...)
}

func (l *logger) Info(msg string, ctx ...any) {
	l.logger.Info(msg, convertCtx(ctx)...)
}

func (l *logger) Error(msg string, ctx ...any) {
	l.logger.Error(msg, convertCtx(ctx)...)
}

func (l *logger) Enabled(lvl Level) bool {
	return l.logger.Core().Enabled(zapcore.Level(lvl))
}

func convertCtx(ctx []any) []zap.Field {
	fields := make([]zap.Field, 0, len(ctx)/2)
	for i := 0; i+1 < len(ctx); i += 2 {
		key, ok := ctx[i].(string)
		if !ok {
			key = fmt.Sprint(ctx[i])
		}
		fields = append(fields, zap.Any(key, ctx[i+1]))
	}
	return fields
}
