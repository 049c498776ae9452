package filters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sniperbot/internal/domain"
)

func b(o, h, l, c float64) domain.Candle {
	return domain.Candle{Open: o, High: h, Low: l, Close: c}
}

func series(candles ...domain.Candle) domain.Series {
	base := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		candles[i].Symbol = "EURUSD"
		candles[i].Timeframe = "15m"
		candles[i].OpenTime = base.Add(time.Duration(i) * 15 * time.Minute)
		candles[i].CloseTime = base.Add(time.Duration(i+1) * 15 * time.Minute)
	}
	return domain.Series{Symbol: "EURUSD", Timeframe: "15m", Candles: candles}
}

// bodies builds candles with the given body sizes, alternating around 100.
func bodies(sizes ...float64) domain.Series {
	candles := make([]domain.Candle, len(sizes))
	for i, sz := range sizes {
		candles[i] = b(100, 100+sz+0.1, 99.9, 100+sz)
	}
	return series(candles...)
}

func newArrival(t *testing.T) *ArrivalFilter {
	t.Helper()
	f, err := NewArrival(ArrivalConfig{Lookback: 3, AvgBodyWindow: 10, MarubozuMultiple: 2.5})
	require.NoError(t, err)
	return f
}

func TestNewArrivalValidation(t *testing.T) {
	_, err := NewArrival(ArrivalConfig{MarubozuMultiple: 0.5})
	assert.Error(t, err)

	_, err = NewArrival(ArrivalConfig{Lookback: -1})
	assert.Error(t, err)

	f, err := NewArrival(ArrivalConfig{})
	require.NoError(t, err)
	assert.Equal(t, 3, f.cfg.Lookback)
	assert.Equal(t, 50, f.cfg.AvgBodyWindow)
	assert.Equal(t, 2.5, f.cfg.MarubozuMultiple)
}

func TestClassifyInsufficientHistoryNeverBlocks(t *testing.T) {
	f := newArrival(t)
	assert.Equal(t, domain.ArrivalCompression, f.Classify(bodies(1, 1, 1)))
}

func TestClassifyFlatMarketNeverBlocks(t *testing.T) {
	f := newArrival(t)
	assert.Equal(t, domain.ArrivalCompression, f.Classify(bodies(0, 0, 0, 0, 0, 0)))
}

func TestClassifyCompression(t *testing.T) {
	f := newArrival(t)
	s := bodies(1, 1, 1, 1, 1, 1, 1, 1, 1, 1)
	assert.Equal(t, domain.ArrivalCompression, f.Classify(s))
}

func TestClassifyMomentum(t *testing.T) {
	f := newArrival(t)
	// Average body 1.3, threshold 3.25, last body 4.
	s := bodies(1, 1, 1, 1, 1, 1, 1, 1, 1, 4)
	assert.Equal(t, domain.ArrivalMomentum, f.Classify(s))
}

func TestClassifyMomentumOutsideLookback(t *testing.T) {
	f := newArrival(t)
	// The displacement candle sits four bars back, outside the approach.
	s := bodies(1, 1, 1, 1, 1, 1, 4, 1, 1, 1)
	assert.Equal(t, domain.ArrivalCompression, f.Classify(s))
}
