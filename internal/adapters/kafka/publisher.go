package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"sniperbot/internal/ports"
)

// Publisher implements ports.CycleObserver by publishing one JSON message per
// evaluation cycle to a Kafka topic. Downstream consumers (alerting, review
// dashboards) subscribe to the topic; the engine never waits on them.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   ports.Logger
}

// Config holds configuration for the Kafka publisher.
type Config struct {
	Brokers []string
	Topic   string
	Logger  ports.Logger
}

// decisionMessage is the wire format published per cycle.
type decisionMessage struct {
	Symbol     string    `json:"symbol"`
	BarTime    time.Time `json:"bar_time"`
	Bias       string    `json:"bias"`
	Arrival    string    `json:"arrival,omitempty"`
	ZoneKind   string    `json:"zone_kind,omitempty"`
	ZoneTop    float64   `json:"zone_top,omitempty"`
	ZoneBottom float64   `json:"zone_bottom,omitempty"`
	RR         float64   `json:"rr,omitempty"`
	Confidence string    `json:"confidence,omitempty"`
	Kill       string    `json:"kill,omitempty"`
	Direction  string    `json:"direction,omitempty"`
	EntryMode  string    `json:"entry_mode,omitempty"`
	EntryPrice float64   `json:"entry_price,omitempty"`
	StopLoss   float64   `json:"stop_loss,omitempty"`
	TakeProfit float64   `json:"take_profit,omitempty"`
	Lots       float64   `json:"lots,omitempty"`
}

// NewPublisher creates a Kafka publisher backed by a synchronous producer.
func NewPublisher(cfg Config) (*Publisher, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Kafka publisher")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required: %w", ports.ErrConfigurationError)
	}
	topic := cfg.Topic
	if topic == "" {
		topic = "trading.decisions"
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForLocal
	saramaCfg.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w: %w", ports.ErrConnectionFailed, err)
	}

	cfg.Logger.Info(context.Background(), "Kafka publisher connected", map[string]interface{}{"brokers": cfg.Brokers, "topic": topic})
	return &Publisher{producer: producer, topic: topic, logger: cfg.Logger}, nil
}

// OnCycle publishes the cycle snapshot keyed by symbol.
func (p *Publisher) OnCycle(ctx context.Context, snap ports.CycleSnapshot) error {
	msg := decisionMessage{
		Symbol:  snap.Symbol,
		BarTime: snap.BarTime,
		Bias:    string(snap.Storyline.Bias),
		Arrival: string(snap.Arrival),
		Kill:    string(snap.Kill),
	}
	if snap.SelectedZone != nil {
		msg.ZoneKind = string(snap.SelectedZone.Kind)
		msg.ZoneTop = snap.SelectedZone.Top
		msg.ZoneBottom = snap.SelectedZone.Bottom
	}
	if snap.Roadblock != nil {
		msg.RR = snap.Roadblock.RR
	}
	if snap.Trigger != nil {
		msg.Confidence = string(snap.Trigger.Confidence)
	}
	if snap.Intent != nil {
		msg.Direction = string(snap.Intent.Direction)
		msg.EntryMode = string(snap.Intent.EntryMode)
		msg.EntryPrice = snap.Intent.EntryPrice
		msg.StopLoss = snap.Intent.StopLoss
		msg.TakeProfit = snap.Intent.TakeProfit
		msg.Lots = snap.Intent.Lots
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal decision message: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(snap.Symbol),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("failed to publish decision for %s: %w", snap.Symbol, err)
	}

	p.logger.Debug(ctx, "Decision published", map[string]interface{}{
		"symbol": snap.Symbol, "partition": partition, "offset": offset, "kill": snap.Kill,
	})
	return nil
}

// Close shuts down the underlying producer.
func (p *Publisher) Close() error {
	return p.producer.Close()
}

var _ ports.CycleObserver = (*Publisher)(nil)
