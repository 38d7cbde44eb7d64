// Package kafka publishes scored records to a downstream topic. The sink is
// optional; when no brokers are configured the service runs without it.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/civic-score-service/internal/config"
	"github.com/couchcryptid/civic-score-service/internal/domain"
)

// Publisher produces scored-record messages, keyed by ZIP code so records
// for the same ZIP land on the same partition. It implements
// pipeline.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// scoredRecord is the wire payload for one published score.
type scoredRecord struct {
	ZipCode  string               `json:"zip_code"`
	Scores   domain.ScoreSet      `json:"scores"`
	Data     domain.RawDataRecord `json:"data"`
	ScoredAt time.Time            `json:"scored_at"`
}

// NewPublisher creates a Kafka producer for the configured sink topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes and writes one scored record.
func (p *Publisher) Publish(ctx context.Context, zip string, rec domain.RawDataRecord, scores domain.ScoreSet) error {
	msg, err := serializeToMessage(scoredRecord{
		ZipCode:  zip,
		Scores:   scores,
		Data:     rec,
		ScoredAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a scored record into a Kafka message keyed by
// ZIP code.
func serializeToMessage(rec scoredRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize scored record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.ZipCode),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "zip_code", Value: []byte(rec.ZipCode)},
			{Key: "scored_at", Value: []byte(rec.ScoredAt.Format(time.RFC3339))},
		},
	}, nil
}
