package calendar

import (
	"testing"
	"time"
)

func TestInSession(t *testing.T) {
	tests := []struct {
		name    string
		session string
		hour    int
		want    bool
	}{
		{"london open edge", SessionLondon, 8, true},
		{"london close edge", SessionLondon, 16, true},
		{"london before open", SessionLondon, 7, false},
		{"london after close", SessionLondon, 17, false},
		{"ny open edge", SessionNY, 13, true},
		{"ny close edge", SessionNY, 21, true},
		{"ny after close", SessionNY, 22, false},
		{"both always", SessionBoth, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := NewSessionClock(tt.session)
			now := time.Date(2025, 6, 4, tt.hour, 30, 0, 0, time.UTC) // a Wednesday
			if got := clock.InSession(now); got != tt.want {
				t.Errorf("InSession(%s %02d:30) = %v, want %v", tt.session, tt.hour, got, tt.want)
			}
		})
	}
}

func TestIsMarketOpenWeekend(t *testing.T) {
	clock := NewSessionClock(SessionBoth)

	tests := []struct {
		name   string
		symbol string
		at     time.Time
		want   bool
	}{
		{"forex midweek", "EURUSD", time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC), true},
		{"forex friday before close", "EURUSD", time.Date(2025, 6, 6, 20, 59, 0, 0, time.UTC), true},
		{"forex friday after close", "EURUSD", time.Date(2025, 6, 6, 21, 0, 0, 0, time.UTC), false},
		{"forex saturday", "EURUSD", time.Date(2025, 6, 7, 12, 0, 0, 0, time.UTC), false},
		{"forex sunday before open", "EURUSD", time.Date(2025, 6, 8, 20, 0, 0, 0, time.UTC), false},
		{"forex sunday after open", "EURUSD", time.Date(2025, 6, 8, 21, 0, 0, 0, time.UTC), true},
		{"crypto saturday", "BTCUSDT", time.Date(2025, 6, 7, 12, 0, 0, 0, time.UTC), true},
		{"synthetic saturday", "R_75", time.Date(2025, 6, 7, 12, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clock.IsMarketOpen(tt.symbol, tt.at); got != tt.want {
				t.Errorf("IsMarketOpen(%s, %s) = %v, want %v", tt.symbol, tt.at, got, tt.want)
			}
		})
	}
}

func TestSymbolCurrencies(t *testing.T) {
	tests := []struct {
		symbol string
		want   []string
	}{
		{"EURUSD", []string{"EUR", "USD"}},
		{"GBPJPY", []string{"GBP", "JPY"}},
		{"XAUUSD", []string{"USD"}},
		{"R_75", nil},
	}

	for _, tt := range tests {
		got := symbolCurrencies(tt.symbol)
		if len(got) != len(tt.want) {
			t.Errorf("symbolCurrencies(%s) = %v, want %v", tt.symbol, got, tt.want)
			continue
		}
		for _, code := range tt.want {
			if !got[code] {
				t.Errorf("symbolCurrencies(%s) missing %s", tt.symbol, code)
			}
		}
	}
}
