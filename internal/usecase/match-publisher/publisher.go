package matchpublisher

import (
	"context"
	"strconv"

	"github.com/segmentio/kafka-go"

	matchpublisherv1 "github.com/muhammadchandra19/exchange/internal/domain/match-publisher/v1"
	"github.com/muhammadchandra19/exchange/pkg/config"
	"github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher represents a Kafka Publisher for publishing match events.
type Publisher struct {
	kafkaWriter messageWriter
	logger      *logger.Logger
}

var _ matchpublisherv1.MatchPublisher = (*Publisher)(nil)

// NewPublisher creates a new Kafka publisher for publishing match events.
func NewPublisher(cfg config.MatchPublisherConfig, log *logger.Logger) *Publisher {
	kafkaWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}

	return newPublisher(kafkaWriter, log)
}

func newPublisher(w messageWriter, log *logger.Logger) *Publisher {
	return &Publisher{
		kafkaWriter: w,
		logger:      log,
	}
}

// PublishMatchEvents publishes match events to the Kafka topic, keyed by stock
// so events of one stock stay in order on one partition.
func (p *Publisher) PublishMatchEvents(ctx context.Context, events ...*matchpublisherv1.MatchEvent) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		msgs = append(msgs, kafka.Message{
			Key:   []byte(event.Stock),
			Value: matchpublisherv1.ToBytes(event),
			Headers: []kafka.Header{
				{Key: "run_id", Value: []byte(event.RunID)},
				{Key: "order_id", Value: []byte(strconv.FormatUint(event.OrderID, 10))},
			},
		})
	}

	if err := p.kafkaWriter.WriteMessages(ctx, msgs...); err != nil {
		p.logger.ErrorContext(ctx, err,
			logger.Field{Key: "error", Value: err.Error()},
			logger.Field{Key: "events", Value: len(events)},
		)
		return errors.NewTracer(errors.KafkaPublishError.String()).Wrap(err)
	}
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Publisher) Close() error {
	if err := p.kafkaWriter.Close(); err != nil {
		p.logger.Error(err, logger.Field{Key: "operation", Value: "Close"})
		return err
	}
	return nil
}
