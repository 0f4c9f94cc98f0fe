/*
 Licensed to the Apache Software Foundation (ASF) under one
 or more contributor license agreements.  See the NOTICE file
 distributed with this work for additional information
 regarding copyright ownership.  The ASF licenses this file
 to you under the Apache License, Version 2.0 (the
 "License"); you may not use this file except in compliance
 with the License.  You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package log

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerHandle identifies a named sub-logger of the simulator.
type LoggerHandle struct {
	id   int
	name string
}

func (h *LoggerHandle) String() string {
	return h.name
}

// Defined loggers: when adding new loggers, ids must be sequential, and all must be added to the loggers slice.
var (
	Root     = &LoggerHandle{id: 0, name: ""}
	Engine   = &LoggerHandle{id: 1, name: "engine"}
	GM       = &LoggerHandle{id: 2, name: "gm"}
	LM       = &LoggerHandle{id: 3, name: "lm"}
	Config   = &LoggerHandle{id: 4, name: "config"}
	Trace    = &LoggerHandle{id: 5, name: "trace"}
	Recorder = &LoggerHandle{id: 6, name: "recorder"}
	Sim      = &LoggerHandle{id: 7, name: "sim"}
	Web      = &LoggerHandle{id: 8, name: "web"}
	Metrics  = &LoggerHandle{id: 9, name: "metrics"}
	TaskFSM  = &LoggerHandle{id: 10, name: "task.fsm"}
)

var handles = []*LoggerHandle{Root, Engine, GM, LM, Config, Trace, Recorder, Sim, Web, Metrics, TaskFSM}

var (
	once      sync.Once
	lock      sync.RWMutex
	logger    *zap.Logger
	config    *zap.Config
	levels    = make([]zap.AtomicLevel, len(handles))
	subLogger = make([]*zap.Logger, len(handles))
)

// Log returns the logger for the given handle, initialising the root logger on first use.
func Log(handle *LoggerHandle) *zap.Logger {
	once.Do(initLogger)
	if handle == nil {
		handle = Root
	}
	lock.RLock()
	l := subLogger[handle.id]
	lock.RUnlock()
	if l != nil {
		return l
	}

	lock.Lock()
	defer lock.Unlock()
	if subLogger[handle.id] != nil {
		return subLogger[handle.id]
	}
	levels[handle.id] = zap.NewAtomicLevelAt(rootLevel())
	level := levels[handle.id]
	l = logger.WithOptions(zap.WrapCore(func(inner zapcore.Core) zapcore.Core {
		return handleCore{Core: inner, level: level}
	}))
	if handle.name != "" {
		l = l.Named(handle.name)
	}
	subLogger[handle.id] = l
	return l
}

// InitializeLogger replaces the root logger. Sub-loggers created before the call are discarded.
func InitializeLogger(log *zap.Logger, zapConfig *zap.Config) {
	once.Do(func() {})
	lock.Lock()
	defer lock.Unlock()
	logger = log
	config = zapConfig
	for i := range subLogger {
		subLogger[i] = nil
	}
	logger.Info("simulator logger initialized")
}

// SetLevel changes the level of the given handle. Changing the Root handle changes the level of the root logger
// and thereby the ceiling of all other handles.
func SetLevel(handle *LoggerHandle, level zapcore.Level) {
	Log(handle)
	lock.Lock()
	defer lock.Unlock()
	if handle == Root && config != nil {
		config.Level.SetLevel(level)
	}
	levels[handle.id].SetLevel(level)
}

// ParseLevel converts a level name ("debug", "info", ...) into a zap level.
func ParseLevel(name string) (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

func IsDebugEnabled(handle *LoggerHandle) bool {
	return Log(handle).Core().Enabled(zapcore.DebugLevel)
}

func initLogger() {
	lock.Lock()
	defer lock.Unlock()
	if logger = zap.L(); isNopLogger(logger) {
		// no global logger injected: build our own
		config = createConfig()
		var err error
		logger, err = config.Build()
		// this should really not happen so just write to stdout and set a Nop logger
		if err != nil {
			fmt.Printf("Logging disabled, logger init failed with error: %v\n", err)
			logger = zap.NewNop()
		}
	}
}

func rootLevel() zapcore.Level {
	if config != nil {
		return config.Level.Level()
	}
	for _, lvl := range []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel} {
		if logger.Core().Enabled(lvl) {
			return lvl
		}
	}
	return zapcore.ErrorLevel
}

// Returns true if the logger is a noop.
// Logger is a noop means the logger has not been initialized yet.
func isNopLogger(logger *zap.Logger) bool {
	return reflect.DeepEqual(zap.NewNop(), logger)
}

// Create a log config to keep full control over
// LogLevel set to INFO, Encodes for console, Writes to stderr,
// Print stack traces for messages at ErrorLevel and above
func createConfig() *zap.Config {
	atomicLevel := zap.NewAtomicLevelAt(zap.InfoLevel)
	return &zap.Config{
		Level:       atomicLevel,
		Development: false,
		Encoding:    "console",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:    "message",
			LevelKey:      "level",
			TimeKey:       "time",
			NameKey:       "name",
			CallerKey:     "caller",
			StacktraceKey: "stacktrace",
			LineEnding:    zapcore.DefaultLineEnding,
			// note: https://godoc.org/go.uber.org/zap/zapcore#EncoderConfig
			// only EncodeName is optional all others must be set
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

// handleCore gives every handle its own level on top of the shared core. The root level stays the
// ceiling as the inner core still checks it.
type handleCore struct {
	zapcore.Core
	level zap.AtomicLevel
}

func (hc handleCore) Enabled(level zapcore.Level) bool {
	return hc.level.Enabled(level) && hc.Core.Enabled(level)
}

func (hc handleCore) With(fields []zapcore.Field) zapcore.Core {
	return handleCore{Core: hc.Core.With(fields), level: hc.level}
}

func (hc handleCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !hc.level.Enabled(entry.Level) {
		return ce
	}
	return hc.Core.Check(entry, ce)
}
