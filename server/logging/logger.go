// Copyright 2017 HootSuite Media Inc.
//
// Licensed under the Apache License, Version 2.0 (the License);
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an AS IS BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Modified hereafter by contributors to jfrog/frogbot-installer.
//
// Package logging handles logging throughout the installer.
package logging

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	ctxInternal "github.com/jfrog/frogbot-installer/server/context"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	logurzap "logur.dev/adapter/zap"
	"logur.dev/logur"
)

// Logger is the logging interface used throughout the code.
type Logger interface {
	logur.Logger
	logur.LoggerContext
	io.Closer
}

type logger struct {
	logur.LoggerFacade
	io.Closer
}

func NewLoggerFromLevel(lvl LogLevel) (Logger, error) {
	structuredLogger, err := NewStructuredLoggerFromLevel(lvl)
	if err != nil {
		return nil, err
	}

	return &logger{
		LoggerFacade: withContextFields(structuredLogger),
		Closer:       structuredLogger,
	}, nil
}

func withContextFields(l logur.Logger) logur.LoggerFacade {
	return logur.WithContextExtractor(
		l,
		func(ctx context.Context) map[string]interface{} {
			return ctxInternal.ExtractFields(ctx)
		},
	)
}

type StructuredLogger struct {
	z     *zap.Logger
	level zap.AtomicLevel
	logur.Logger
}

func NewStructuredLoggerFromLevel(lvl LogLevel) (*StructuredLogger, error) {
	cfg := zap.NewProductionConfig()

	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(lvl.zLevel)
	return newStructuredLogger(cfg)
}

func newStructuredLogger(cfg zap.Config) (*StructuredLogger, error) {
	baseLogger, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "initializing structured logger")
	}

	baseLogger = baseLogger.
		// ensures that the caller doesn't just say logging/logger each time
		WithOptions(zap.AddCallerSkip(1)).
		WithOptions(zap.AddStacktrace(zapcore.ErrorLevel)).
		// creates isolated context for all future kv pairs
		With(zap.Namespace("json"))

	return &StructuredLogger{
		z:      baseLogger,
		level:  cfg.Level,
		Logger: logurzap.New(baseLogger),
	}, nil
}

func (l *StructuredLogger) SetLevel(lvl LogLevel) {
	if l != nil {
		l.level.SetLevel(lvl.zLevel)
	}
}

func (l *StructuredLogger) Close() error {
	return l.z.Sync()
}

// NewNoopCtxLogger creates a logger that writes through the test's log
// output so it only shows up on failures.
func NewNoopCtxLogger(t *testing.T) Logger {
	level := zap.DebugLevel
	zapLogger := zaptest.NewLogger(t, zaptest.Level(level))
	sLogger := &StructuredLogger{
		z:      zapLogger,
		level:  zap.NewAtomicLevelAt(level),
		Logger: logurzap.New(zapLogger),
	}

	return &logger{
		LoggerFacade: withContextFields(sLogger),
		Closer:       io.NopCloser(nil),
	}
}

type LogLevel struct {
	zLevel   zapcore.Level
	shortStr string
}

func (l LogLevel) String() string {
	return l.zLevel.String()
}

func (l *LogLevel) Decode(ctx *kong.DecodeContext) error {
	var rawLevel string
	err := ctx.Scan.PopValueInto("string", &rawLevel)
	if err != nil {
		return err
	}
	lvl, err := ParseLogLevel(rawLevel)
	if err != nil {
		return err
	}
	ctx.Value.Target.Set(reflect.ValueOf(lvl))
	return nil
}

func ParseLogLevel(raw string) (LogLevel, error) {
	switch strings.ToLower(raw) {
	case "debug":
		return Debug, nil
	case "info":
		return Info, nil
	case "warn":
		return Warn, nil
	case "error":
		return Error, nil
	}
	return LogLevel{}, fmt.Errorf("log level %q is not supported", raw)
}

var (
	Debug = LogLevel{
		zLevel:   zapcore.DebugLevel,
		shortStr: "DBUG",
	}
	Info = LogLevel{
		zLevel:   zapcore.InfoLevel,
		shortStr: "INFO",
	}
	Warn = LogLevel{
		zLevel:   zapcore.WarnLevel,
		shortStr: "WARN",
	}
	Error = LogLevel{
		zLevel:   zapcore.ErrorLevel,
		shortStr: "EROR",
	}
)
