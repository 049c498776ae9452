package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"sniperbot/config"
	"sniperbot/internal/adapters/binanceclient"
	"sniperbot/internal/adapters/logger"
	"sniperbot/internal/utils"
)

// fetch downloads historical candles to CSV files consumed by cmd/replay.
func main() {
	symbol := flag.String("symbol", "BTCUSDT", "symbol to fetch")
	timeframe := flag.String("tf", "15m", "candle timeframe")
	months := flag.Int("months", 3, "how many months of history")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	appLogger := logger.NewStdLogger(cfg.LogLevel)

	client, err := binanceclient.New(binanceclient.Config{
		APIKey:               cfg.APIKey,
		SecretKey:            cfg.SecretKey,
		UseTestnet:           cfg.IsTestnet,
		Logger:               appLogger,
		ReconnectDelay:       cfg.ReconnectDelay,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}

	end := time.Now()
	start := end.AddDate(0, -*months, 0)

	appLogger.Info(context.Background(), "Fetching candles", map[string]interface{}{
		"symbol": *symbol, "timeframe": *timeframe, "start": start, "end": end,
	})
	candles, err := client.FetchRange(context.Background(), *symbol, *timeframe, start, end)
	if err != nil {
		log.Fatalf("Error fetching candles: %v", err)
	}
	appLogger.Info(context.Background(), "Fetched candles", map[string]interface{}{"count": len(candles)})

	filename := fmt.Sprintf("data/%s_%s_%s_to_%s.csv", *symbol, *timeframe, start.Format("20060102"), end.Format("20060102"))
	if err := utils.WriteCandlesToCSV(candles, filename); err != nil {
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(context.Background(), "Saved candles", map[string]interface{}{"filename": filename})
}
