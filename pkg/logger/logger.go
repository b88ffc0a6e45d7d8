// Copyright 2021 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logger

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	LogContainer     logContainer
	loggerInit       sync.Once
	simpleLoggerInit sync.Once
)

type logContainer struct {
	logger       *zap.Logger
	simpleLogger *zap.SugaredLogger

	logfile string
	level   zapcore.Level
}

// Configure sets the optional JSON log file and the minimum level. It only
// has an effect before the first GetLogger or GetSimpleLogger call.
func (l *logContainer) Configure(logfile string, level zapcore.Level) {
	l.logfile = logfile
	l.level = level
}

// GetLogger returns the pointer to the logger and creates one if none exists
func (l *logContainer) GetLogger() *zap.Logger {
	loggerInit.Do(func() {
		l.logger = zap.New(l.getCombinedCore())
	})
	return l.logger
}

// GetSimpleLogger returns the pointer to the sugared logger and creates one
// if none exists
func (l *logContainer) GetSimpleLogger() *zap.SugaredLogger {
	simpleLoggerInit.Do(func() {
		l.simpleLogger = l.GetLogger().Sugar()
	})
	return l.simpleLogger
}

// String mirrors zap.String
func (l *logContainer) String(key string, val string) zap.Field {
	return zap.String(key, val)
}

// Int mirrors zap.Int
func (l *logContainer) Int(key string, val int) zap.Field {
	return zap.Int(key, val)
}

// Address formats a physical address as hex.
func (l *logContainer) Address(key string, val uint64) zap.Field {
	return zap.String(key, fmt.Sprintf("0x%X", val))
}

func getConsoleEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func getJsonEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.EpochTimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

func getLogWriter(path string) (zapcore.WriteSyncer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("unable to open logfile: %v", err)
	}
	return zapcore.AddSync(f), nil
}

// Log text goes to stdout, so the console core writes to stderr.
func getConsoleCore(level zapcore.Level) zapcore.Core {
	return zapcore.NewCore(getConsoleEncoder(), zapcore.Lock(os.Stderr), level)
}

func getJsonCore(w zapcore.WriteSyncer, level zapcore.Level) zapcore.Core {
	return zapcore.NewCore(getJsonEncoder(), w, level)
}

func (l *logContainer) getCombinedCore() zapcore.Core {
	console := getConsoleCore(l.level)
	if l.logfile == "" {
		return console
	}
	w, err := getLogWriter(l.logfile)
	if err != nil {
		c := zap.New(console)
		c.Warn("logging to console only", zap.Error(err))
		return console
	}
	return zapcore.NewTee(console, getJsonCore(w, l.level))
}
