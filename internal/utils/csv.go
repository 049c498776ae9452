package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"sniperbot/internal/domain"
)

// WriteCandlesToCSV saves a candle series to a CSV file for offline replay.
func WriteCandlesToCSV(candles []domain.Candle, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"open_time", "close_time", "symbol", "timeframe", "open", "high", "low", "close", "volume"})

	for _, c := range candles {
		writer.Write([]string{
			c.OpenTime.Format(time.RFC3339),
			c.CloseTime.Format(time.RFC3339),
			c.Symbol,
			c.Timeframe,
			strconv.FormatFloat(c.Open, 'f', -1, 64),
			strconv.FormatFloat(c.High, 'f', -1, 64),
			strconv.FormatFloat(c.Low, 'f', -1, 64),
			strconv.FormatFloat(c.Close, 'f', -1, 64),
			strconv.FormatFloat(c.Volume, 'f', -1, 64),
		})
	}
	return writer.Error()
}

// ReadCandlesFromCSV loads a candle series previously saved with
// WriteCandlesToCSV, oldest-first as stored.
func ReadCandlesFromCSV(filename string) ([]domain.Candle, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, nil // header only or empty
	}

	candles := make([]domain.Candle, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != 9 {
			return nil, fmt.Errorf("row %d: expected 9 columns, got %d", i+2, len(row))
		}
		openTime, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid open_time: %w", i+2, err)
		}
		closeTime, err := time.Parse(time.RFC3339, row[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid close_time: %w", i+2, err)
		}
		vals := make([]float64, 5)
		for j, col := range row[4:] {
			v, err := strconv.ParseFloat(col, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: invalid number %q: %w", i+2, j+5, col, err)
			}
			vals[j] = v
		}
		candles = append(candles, domain.Candle{
			OpenTime:  openTime,
			CloseTime: closeTime,
			Symbol:    row[2],
			Timeframe: row[3],
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		})
	}
	return candles, nil
}
