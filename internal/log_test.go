package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"error", LogLevelError},
		{" WARN ", LogLevelWarn},
		{"debug", LogLevelDebug},
		{"trace", LogLevelTrace},
		{"", LogLevelInfo},
		{"verbose", LogLevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestDebugEnabled(t *testing.T) {
	assert.False(t, NewLogger(LogLevelInfo).DebugEnabled())
	assert.True(t, NewLogger(LogLevelDebug).DebugEnabled())
	assert.True(t, NewLogger(LogLevelTrace).With("Pivot").DebugEnabled())
}
