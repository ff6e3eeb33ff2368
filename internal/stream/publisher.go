// Package stream publishes quote records to Kafka, one message per record
// keyed by event id so each event's quotes stay on one partition.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/rickgao/odds-data/internal/config"
	"github.com/rickgao/odds-data/internal/model"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// quoteMessage is the JSON value of one message.
type quoteMessage struct {
	EventID    string  `json:"id"`
	HomeTeam   string  `json:"home_team"`
	AwayTeam   string  `json:"away_team"`
	CapturedAt string  `json:"time"`
	Bookmaker  string  `json:"bookmaker"`
	Team       string  `json:"team"`
	Odds       float64 `json:"odds"`
}

// Publisher writes quote batches to a topic.
type Publisher struct {
	writer MessageWriter
	topic  string
	logger *slog.Logger
}

// NewWriter builds the kafka-go writer for cfg.
func NewWriter(cfg config.StreamConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		RequiredAcks:           kafka.RequireAll,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: cfg.AllowAutoTopicCreation,
	}
}

// NewPublisher creates a Publisher over w.
func NewPublisher(w MessageWriter, topic string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		writer: w,
		topic:  topic,
		logger: logger,
	}
}

// Name implements sink.Sink.
func (p *Publisher) Name() string { return "kafka" }

// Append publishes records in one WriteMessages call.
func (p *Publisher) Append(ctx context.Context, records []model.QuoteRecord) error {
	if len(records) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(records))
	for _, r := range records {
		value, err := json.Marshal(quoteMessage{
			EventID:    r.EventID,
			HomeTeam:   r.HomeTeam,
			AwayTeam:   r.AwayTeam,
			CapturedAt: model.FormatTime(r.CapturedAt),
			Bookmaker:  r.Bookmaker,
			Team:       r.Participant,
			Odds:       r.Price,
		})
		if err != nil {
			return fmt.Errorf("marshal quote: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(r.EventID),
			Value: value,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka write to %s: %w", p.topic, err)
	}
	p.logger.Debug("published quotes", "topic", p.topic, "count", len(msgs))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
