package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *LoggerConfig
		wantDebug bool
	}{
		{"info", &LoggerConfig{Debug: false}, false},
		{"debug", &LoggerConfig{Debug: true}, true},
		{"console", &LoggerConfig{Debug: true, Console: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLogger(tt.cfg)
			assert.NoError(t, err)
			assert.NotNil(t, l)
			assert.Equal(t, tt.wantDebug, l.Core().Enabled(zapcore.DebugLevel))
			assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
		})
	}
}

func TestNewLogger_Options(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l, err := NewLogger(&LoggerConfig{Debug: true}, zap.WrapCore(func(zapcore.Core) zapcore.Core {
		return core
	}))
	assert.NoError(t, err)

	l.Sugar().Debugw("decoded", "type", "Tx")
	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, "Tx", logs.All()[0].ContextMap()["type"])
}
