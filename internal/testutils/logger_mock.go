// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package testutils

import (
	"github.com/Thermoquad/scorpion/pkg/logger"
	"github.com/stretchr/testify/mock"
)

// MockLogger records log calls through testify/mock.
type MockLogger struct {
	mock.Mock
}

var _ logger.Logger = (*MockLogger)(nil)

// NewMockLogger returns a MockLogger accepting debug and info calls, so
// tests only need to set expectations for the levels they care about.
func NewMockLogger() *MockLogger {
	m := &MockLogger{}
	m.On("Debug", mock.Anything, mock.Anything).Maybe()
	m.On("Info", mock.Anything, mock.Anything).Maybe()
	return m
}

func (m *MockLogger) Debug(msg string, keysAndValues ...any) {
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) Info(msg string, keysAndValues ...any) {
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) Warn(msg string, keysAndValues ...any) {
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) Error(msg string, keysAndValues ...any) {
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) With(keysAndValues ...any) logger.Logger {
	return m
}

func (m *MockLogger) Level() logger.Level {
	return logger.DebugLevel
}

func (m *MockLogger) SetLevel(logger.Level) {}
