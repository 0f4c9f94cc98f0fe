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
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

// RateLimitedLogger drops messages logged more often than its interval. The next message that gets
// through carries the number of messages dropped before it.
type RateLimitedLogger struct {
	logger     *zap.Logger
	limiter    *rate.Limiter
	suppressed *atomic.Int64
}

// RateLimitedLog provides a logger that only logs once within a specified duration.
// The duration is wall clock time, not simulated time.
func RateLimitedLog(handle *LoggerHandle, every time.Duration) *RateLimitedLogger {
	return newRateLimitedLogger(Log(handle), rate.NewLimiter(rate.Every(every), 1))
}

func newRateLimitedLogger(logger *zap.Logger, limiter *rate.Limiter) *RateLimitedLogger {
	return &RateLimitedLogger{
		logger:     logger,
		limiter:    limiter,
		suppressed: atomic.NewInt64(0),
	}
}

func (rl *RateLimitedLogger) log(level zapcore.Level, msg string, fields []zap.Field) {
	// disabled levels do not use up the limit
	ce := rl.logger.Check(level, msg)
	if ce == nil {
		return
	}
	if !rl.limiter.Allow() {
		rl.suppressed.Inc()
		return
	}
	if dropped := rl.suppressed.Swap(0); dropped > 0 {
		fields = append(fields, zap.Int64("suppressed", dropped))
	}
	ce.Write(fields...)
}

// Suppressed returns the number of messages dropped since the last one logged.
func (rl *RateLimitedLogger) Suppressed() int64 {
	return rl.suppressed.Load()
}

func (rl *RateLimitedLogger) Debug(msg string, fields ...zap.Field) {
	rl.log(zapcore.DebugLevel, msg, fields)
}

func (rl *RateLimitedLogger) Info(msg string, fields ...zap.Field) {
	rl.log(zapcore.InfoLevel, msg, fields)
}

func (rl *RateLimitedLogger) Warn(msg string, fields ...zap.Field) {
	rl.log(zapcore.WarnLevel, msg, fields)
}

func (rl *RateLimitedLogger) Error(msg string, fields ...zap.Field) {
	rl.log(zapcore.ErrorLevel, msg, fields)
}
