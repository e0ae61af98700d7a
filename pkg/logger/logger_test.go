package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		enabled     zapcore.Level
		disabled    zapcore.Level
		expectError bool
	}{
		{name: "default is info", cfg: Config{}, enabled: zapcore.InfoLevel, disabled: zapcore.DebugLevel},
		{name: "debug development", cfg: Config{Level: "DEBUG", Development: true}, enabled: zapcore.DebugLevel, disabled: zapcore.DebugLevel - 1},
		{name: "warn", cfg: Config{Level: "warn"}, enabled: zapcore.WarnLevel, disabled: zapcore.InfoLevel},
		{name: "invalid", cfg: Config{Level: "loud"}, expectError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.enabled))
			assert.False(t, log.Core().Enabled(tt.disabled))
		})
	}
}
