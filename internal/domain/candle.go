package domain

import (
	"math"
	"time"
)

// Candle represents a single completed OHLC bar.
type Candle struct {
	OpenTime  time.Time // Start time of the interval
	CloseTime time.Time // End time of the interval
	Symbol    string    // Trading symbol
	Timeframe string    // Bar interval (e.g., "M15", "H4")
	Open      float64   // Opening price
	High      float64   // Highest price
	Low       float64   // Lowest price
	Close     float64   // Closing price
	Volume    float64   // Traded volume
}

// Bullish reports whether the candle closed above its open.
func (c Candle) Bullish() bool { return c.Close > c.Open }

// Bearish reports whether the candle closed below its open.
func (c Candle) Bearish() bool { return c.Close < c.Open }

// Body returns the absolute size of the candle body.
func (c Candle) Body() float64 { return math.Abs(c.Close - c.Open) }

// BodyTop returns the higher of open and close.
func (c Candle) BodyTop() float64 { return math.Max(c.Open, c.Close) }

// BodyBottom returns the lower of open and close.
func (c Candle) BodyBottom() float64 { return math.Min(c.Open, c.Close) }

// Series is an immutable snapshot of completed candles for one
// symbol/timeframe pair, ordered oldest-first. A fresh snapshot is fetched
// for every evaluation cycle; the still-forming bar is never included.
type Series struct {
	Symbol    string
	Timeframe string
	Candles   []Candle
}

// Len returns the number of candles in the snapshot.
func (s Series) Len() int { return len(s.Candles) }

// Last returns the most recent completed candle. The boolean is false when
// the snapshot is empty.
func (s Series) Last() (Candle, bool) {
	if len(s.Candles) == 0 {
		return Candle{}, false
	}
	return s.Candles[len(s.Candles)-1], true
}

// HighestHigh returns the maximum high over the snapshot.
func (s Series) HighestHigh() float64 {
	h := math.Inf(-1)
	for _, c := range s.Candles {
		if c.High > h {
			h = c.High
		}
	}
	return h
}

// LowestLow returns the minimum low over the snapshot.
func (s Series) LowestLow() float64 {
	l := math.Inf(1)
	for _, c := range s.Candles {
		if c.Low < l {
			l = c.Low
		}
	}
	return l
}
