package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		wantErr  bool
	}{
		{"", LevelInfo, false},
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"Info", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"error", LevelError, false},
		{"trace", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestLevelToZapCoreLevel(t *testing.T) {
	lvl, err := LevelDebug.toZapCoreLevel()
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	lvl, err = Level("").toZapCoreLevel()
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)

	_, err = Level("nope").toZapCoreLevel()
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	c := &Config{Level: LevelInfo}
	require.NoError(t, c.Validate())

	c.MaxSize = -1
	assert.Error(t, c.Validate())

	c = &Config{Level: Level("bogus")}
	assert.Error(t, c.Validate())
}
