//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestSetLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		LevelDebug: zapcore.DebugLevel,
		LevelInfo:  zapcore.InfoLevel,
		LevelWarn:  zapcore.WarnLevel,
		LevelError: zapcore.ErrorLevel,
		LevelFatal: zapcore.FatalLevel,
		"bogus":    zapcore.InfoLevel,
	}
	for level, want := range tests {
		SetLevel(level)
		assert.Equal(t, want, zapLevel.Level())
	}
	SetLevel(LevelInfo)
}

func TestDefaultLogger(t *testing.T) {
	assert.NotNil(t, Default)
	// Package-level helpers should not panic.
	Debug("debug message")
	Debugf("debug %s", "message")
	Info("info message")
	Infof("info %s", "message")
	Warn("warn message")
	Warnf("warn %s", "message")
	Error("error message")
	Errorf("error %s", "message")
}
