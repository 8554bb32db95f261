/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package zaplog provides a logging provider backed by zap. Once installed
// with Initialize, the application and the SDK log through the same sink.
//
// Levels stay under control of the SDK's module levels (logging.SetLevel);
// zap itself is opened at debug level and never filters.
package zaplog

import (
	"fmt"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/hyperledger/fabric-sdk-go/pkg/core/logging/api"
	"github.com/hyperledger/fabric-sdk-go/pkg/core/logging/modlog"
	"github.com/kawaya-ledger/fabric-api/pkg/core/config"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Provider hands out zap backed loggers, one per module
type Provider struct {
	base *zap.Logger
}

// New builds a provider for the given encoding ("json" or "console")
func New(encoding string) (*Provider, error) {
	var zc zap.Config
	switch encoding {
	case "json":
		zc = zap.NewProductionConfig()
	case "console", "":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, errors.Errorf("unsupported log encoding: %s", encoding)
	}
	zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	zc.DisableStacktrace = true

	base, err := zc.Build(zap.AddCallerSkip(2))
	if err != nil {
		return nil, errors.Wrap(err, "building zap logger failed")
	}
	return &Provider{base: base}, nil
}

// NewWithCore builds a provider writing to the given core
func NewWithCore(core zapcore.Core) *Provider {
	return &Provider{base: zap.New(core)}
}

// GetLogger returns the logger of a module
func (p *Provider) GetLogger(module string) api.Logger {
	return &Logger{sugar: p.base.Named(module).Sugar(), module: module}
}

// Sync flushes buffered entries
func (p *Provider) Sync() error {
	return p.base.Sync()
}

// Initialize installs a provider for cfg and applies the configured levels.
// It must run before anything logs; later calls only update the levels.
func Initialize(cfg config.LoggingConfig) (*Provider, error) {
	p, err := New(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	logging.Initialize(p)

	if err := ApplyLevels(cfg); err != nil {
		return nil, err
	}
	return p, nil
}

// ApplyLevels sets the default level and the per-module overrides
func ApplyLevels(cfg config.LoggingConfig) error {
	level, err := logging.LogLevel(cfg.Level)
	if err != nil {
		return errors.WithMessage(err, "invalid log level")
	}
	// the empty module is the fallback for every module without its own level
	logging.SetLevel("", level)

	for module, l := range cfg.Modules {
		moduleLevel, err := logging.LogLevel(l)
		if err != nil {
			return errors.WithMessagef(err, "invalid log level for module %s", module)
		}
		logging.SetLevel(module, moduleLevel)
	}
	return nil
}

// Logger is an api.Logger on top of a zap SugaredLogger
type Logger struct {
	sugar  *zap.SugaredLogger
	module string
}

func (l *Logger) enabled(level api.Level) bool {
	return modlog.IsEnabledFor(l.module, level)
}

// Fatal logs and exits
func (l *Logger) Fatal(v ...interface{}) { l.sugar.Fatal(v...) }

// Fatalf logs and exits
func (l *Logger) Fatalf(format string, v ...interface{}) { l.sugar.Fatalf(format, v...) }

// Fatalln logs and exits
func (l *Logger) Fatalln(v ...interface{}) { l.sugar.Fatal(sprintln(v...)) }

// Panic logs and panics
func (l *Logger) Panic(v ...interface{}) { l.sugar.Panic(v...) }

// Panicf logs and panics
func (l *Logger) Panicf(format string, v ...interface{}) { l.sugar.Panicf(format, v...) }

// Panicln logs and panics
func (l *Logger) Panicln(v ...interface{}) { l.sugar.Panic(sprintln(v...)) }

// Print logs at info level regardless of the module level
func (l *Logger) Print(v ...interface{}) { l.sugar.Info(v...) }

// Printf logs at info level regardless of the module level
func (l *Logger) Printf(format string, v ...interface{}) { l.sugar.Infof(format, v...) }

// Println logs at info level regardless of the module level
func (l *Logger) Println(v ...interface{}) { l.sugar.Info(sprintln(v...)) }

// Debug logging
func (l *Logger) Debug(args ...interface{}) {
	if l.enabled(api.DEBUG) {
		l.sugar.Debug(args...)
	}
}

// Debugf logging
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.enabled(api.DEBUG) {
		l.sugar.Debugf(format, args...)
	}
}

// Debugln logging
func (l *Logger) Debugln(args ...interface{}) {
	if l.enabled(api.DEBUG) {
		l.sugar.Debug(sprintln(args...))
	}
}

// Info logging
func (l *Logger) Info(args ...interface{}) {
	if l.enabled(api.INFO) {
		l.sugar.Info(args...)
	}
}

// Infof logging
func (l *Logger) Infof(format string, args ...interface{}) {
	if l.enabled(api.INFO) {
		l.sugar.Infof(format, args...)
	}
}

// Infoln logging
func (l *Logger) Infoln(args ...interface{}) {
	if l.enabled(api.INFO) {
		l.sugar.Info(sprintln(args...))
	}
}

// Warn logging
func (l *Logger) Warn(args ...interface{}) {
	if l.enabled(api.WARNING) {
		l.sugar.Warn(args...)
	}
}

// Warnf logging
func (l *Logger) Warnf(format string, args ...interface{}) {
	if l.enabled(api.WARNING) {
		l.sugar.Warnf(format, args...)
	}
}

// Warnln logging
func (l *Logger) Warnln(args ...interface{}) {
	if l.enabled(api.WARNING) {
		l.sugar.Warn(sprintln(args...))
	}
}

// Error logging
func (l *Logger) Error(args ...interface{}) {
	if l.enabled(api.ERROR) {
		l.sugar.Error(args...)
	}
}

// Errorf logging
func (l *Logger) Errorf(format string, args ...interface{}) {
	if l.enabled(api.ERROR) {
		l.sugar.Errorf(format, args...)
	}
}

// Errorln logging
func (l *Logger) Errorln(args ...interface{}) {
	if l.enabled(api.ERROR) {
		l.sugar.Error(sprintln(args...))
	}
}

// sprintln formats like fmt.Sprintln without the trailing newline
func sprintln(args ...interface{}) string {
	msg := fmt.Sprintln(args...)
	return msg[:len(msg)-1]
}
