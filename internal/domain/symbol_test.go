package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipValue(t *testing.T) {
	tests := []struct {
		symbol string
		want   float64
	}{
		{"BTCUSDT", 0.1},
		{"btcusdt", 0.1},
		{"ETHUSDT", 1},
		{"SOLUSDT", 10},
		{"USDJPY", 10},
		{"XAUUSD", 10},
		{"US30", 10},
		{"R_75", 10},
		{"EURUSD", 10000},
		{"GBPUSD", 10000},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			assert.Equal(t, tt.want, PipValue(tt.symbol))
		})
	}
}

func TestAlwaysOpen(t *testing.T) {
	assert.True(t, AlwaysOpen("BTCUSDT"))
	assert.True(t, AlwaysOpen("ethusdt"))
	assert.True(t, AlwaysOpen("R_100"))
	assert.True(t, AlwaysOpen("BOOM500"))
	assert.False(t, AlwaysOpen("EURUSD"))
	assert.False(t, AlwaysOpen("XAUUSD"))
}
