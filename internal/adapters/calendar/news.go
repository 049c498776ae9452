package calendar

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"sniperbot/internal/ports"
)

const defaultFeedURL = "https://nfs.faireconomy.media/ff_calendar_thisweek.xml"

// majorCurrencies are the codes scanned for inside a symbol name when
// matching news events to instruments.
var majorCurrencies = []string{"USD", "EUR", "GBP", "JPY", "AUD", "NZD", "CAD", "CHF"}

// NewsCalendar implements ports.Calendar against the weekly economic
// calendar XML feed. Events are fetched lazily and cached for a TTL so a
// multi-symbol scan hits the feed at most once per interval.
type NewsCalendar struct {
	client          *http.Client
	logger          ports.Logger
	feedURL         string
	impacts         map[string]bool
	cacheTTL        time.Duration
	blackoutMinutes int

	mu        sync.Mutex
	events    []newsEvent
	lastFetch time.Time
}

// Config holds configuration for the news calendar adapter.
type Config struct {
	Logger          ports.Logger
	FeedURL         string
	Impacts         []string // event impact levels to honor, e.g. High, Medium
	CacheTTL        time.Duration
	BlackoutMinutes int // blackout half-window around each event
}

type newsEvent struct {
	Currency string
	Time     time.Time
}

// xmlWeek mirrors the feed's structure.
type xmlWeek struct {
	XMLName xml.Name   `xml:"weeklyevents"`
	Events  []xmlEvent `xml:"event"`
}

type xmlEvent struct {
	Country string `xml:"country"`
	Impact  string `xml:"impact"`
	Date    string `xml:"date"`
	Time    string `xml:"time"`
}

// NewNewsCalendar creates a news calendar adapter.
func NewNewsCalendar(cfg Config) (*NewsCalendar, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for news calendar")
	}
	feedURL := cfg.FeedURL
	if feedURL == "" {
		feedURL = defaultFeedURL
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	blackout := cfg.BlackoutMinutes
	if blackout <= 0 {
		blackout = 30
	}
	impacts := make(map[string]bool, len(cfg.Impacts))
	for _, imp := range cfg.Impacts {
		impacts[imp] = true
	}
	if len(impacts) == 0 {
		impacts["High"] = true
		impacts["Medium"] = true
	}

	return &NewsCalendar{
		client:          &http.Client{Timeout: 10 * time.Second},
		logger:          cfg.Logger,
		feedURL:         feedURL,
		impacts:         impacts,
		cacheTTL:        cacheTTL,
		blackoutMinutes: blackout,
	}, nil
}

// IsBlackout reports whether any cached news event for a currency contained
// in the symbol falls within the blackout window around now.
func (n *NewsCalendar) IsBlackout(ctx context.Context, symbol string, now time.Time) (bool, error) {
	if err := n.refresh(ctx); err != nil {
		// A stale cache still answers; only a cold cache propagates the error.
		n.mu.Lock()
		empty := len(n.events) == 0
		n.mu.Unlock()
		if empty {
			return false, err
		}
		n.logger.Warn(ctx, "News feed refresh failed, using stale cache", map[string]interface{}{"error": err.Error()})
	}

	currencies := symbolCurrencies(symbol)
	if len(currencies) == 0 {
		return false, nil
	}

	window := time.Duration(n.blackoutMinutes) * time.Minute

	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ev := range n.events {
		if !currencies[ev.Currency] {
			continue
		}
		diff := ev.Time.Sub(now)
		if diff >= -window && diff <= window {
			return true, nil
		}
	}
	return false, nil
}

// refresh re-fetches the feed when the cache TTL has expired.
func (n *NewsCalendar) refresh(ctx context.Context) error {
	n.mu.Lock()
	if time.Since(n.lastFetch) < n.cacheTTL {
		n.mu.Unlock()
		return nil
	}
	n.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.feedURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build news feed request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("news feed request failed: %w: %w", ports.ErrConnectionFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("news feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read news feed body: %w", err)
	}

	events, err := n.parse(ctx, body)
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.events = events
	n.lastFetch = time.Now()
	n.mu.Unlock()

	n.logger.Info(ctx, "Fetched news events", map[string]interface{}{"count": len(events)})
	return nil
}

func (n *NewsCalendar) parse(ctx context.Context, body []byte) ([]newsEvent, error) {
	var week xmlWeek
	if err := xml.Unmarshal(body, &week); err != nil {
		return nil, fmt.Errorf("failed to parse news feed XML: %w", err)
	}

	var events []newsEvent
	for _, ev := range week.Events {
		if !n.impacts[ev.Impact] {
			continue
		}
		timeStr := strings.TrimSpace(ev.Time)
		lower := strings.ToLower(timeStr)
		// All-day and tentative entries carry no clock time.
		if !strings.Contains(lower, "am") && !strings.Contains(lower, "pm") {
			continue
		}

		ts, ok := parseEventTime(strings.TrimSpace(ev.Date), timeStr)
		if !ok {
			n.logger.Warn(ctx, "Unparseable news event date", map[string]interface{}{"date": ev.Date, "time": ev.Time})
			continue
		}
		events = append(events, newsEvent{Currency: strings.TrimSpace(ev.Country), Time: ts})
	}
	return events, nil
}

// parseEventTime accepts both date layouts the feed has used over time.
func parseEventTime(date, clock string) (time.Time, bool) {
	for _, layout := range []string{"01-02-2006 3:04pm", "2006-01-02 3:04pm"} {
		if ts, err := time.Parse(layout, date+" "+clock); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// symbolCurrencies extracts the major currency codes contained in a symbol.
func symbolCurrencies(symbol string) map[string]bool {
	clean := strings.ToUpper(symbol)
	currencies := make(map[string]bool)
	for _, code := range majorCurrencies {
		if strings.Contains(clean, code) {
			currencies[code] = true
		}
	}
	// Gold trades against the dollar.
	if strings.Contains(clean, "XAU") {
		currencies["USD"] = true
	}
	return currencies
}

var _ ports.Calendar = (*NewsCalendar)(nil)
