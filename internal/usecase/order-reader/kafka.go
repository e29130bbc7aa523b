package orderreader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"

	orderreaderv1 "github.com/muhammadchandra19/exchange/internal/domain/order-reader/v1"
	"github.com/muhammadchandra19/exchange/pkg/config"
	errs "github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/logger"
)

// OrderMessage is the JSON payload of an order on the Kafka feed.
// Quantity may be sent as a JSON number or a numeric string.
type OrderMessage struct {
	Trader   string      `json:"trader"`
	Stock    string      `json:"stock"`
	Quantity json.Number `json:"quantity"`
	Side     string      `json:"side"`
}

// ToBytes encodes the message as JSON.
func (m OrderMessage) ToBytes() []byte {
	buf, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return buf
}

// DecodeMessage turns a Kafka message value into a feed record.
func DecodeMessage(value []byte) (orderreaderv1.Record, error) {
	var msg OrderMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return orderreaderv1.Record{}, fmt.Errorf("%w: %w", orderreaderv1.ErrMalformedRecord, err)
	}
	return orderreaderv1.NewRecord(msg.Trader, msg.Stock, msg.Quantity.String(), msg.Side), nil
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaReader reads order records from a Kafka topic. The feed counts as
// exhausted once no message arrives within the idle timeout.
type KafkaReader struct {
	kafkaReader messageReader
	idleTimeout time.Duration
	logger      *logger.Logger
}

var _ orderreaderv1.OrderReader = (*KafkaReader)(nil)

// NewKafkaReader creates a new Kafka reader for consuming the order topic.
func NewKafkaReader(cfg config.KafkaConfig, log *logger.Logger) *KafkaReader {
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})

	return newKafkaReader(kafkaReader, cfg.IdleTimeout, log)
}

func newKafkaReader(r messageReader, idleTimeout time.Duration, log *logger.Logger) *KafkaReader {
	return &KafkaReader{
		kafkaReader: r,
		idleTimeout: idleTimeout,
		logger:      log,
	}
}

// logError is a helper method to log errors consistently
func (r *KafkaReader) logError(err error, operation string) {
	r.logger.Error(err,
		logger.Field{Key: "error", Value: err.Error()},
		logger.Field{Key: "operation", Value: operation},
	)
}

// ReadRecord reads the next order message and decodes it.
func (r *KafkaReader) ReadRecord(ctx context.Context) (orderreaderv1.Record, error) {
	readCtx := ctx
	if r.idleTimeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, r.idleTimeout)
		defer cancel()
	}

	msg, err := r.kafkaReader.ReadMessage(readCtx)
	if err != nil {
		if ctx.Err() != nil {
			return orderreaderv1.Record{}, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			r.logger.Info("order feed idle, treating as exhausted",
				logger.Field{Key: "idleTimeout", Value: r.idleTimeout.String()},
			)
			return orderreaderv1.Record{}, io.EOF
		}
		r.logError(err, "ReadMessage")
		return orderreaderv1.Record{}, errs.NewErrorDetailsWithCause(
			"cannot read order topic",
			errs.FeedUnavailableError,
			"ReadMessage",
			fmt.Errorf("%w: %w", orderreaderv1.ErrFeedUnavailable, err),
		)
	}

	record, err := DecodeMessage(msg.Value)
	if err != nil {
		r.logger.Warn("cannot decode order message",
			logger.Field{Key: "offset", Value: msg.Offset},
			logger.Field{Key: "value", Value: string(msg.Value)},
		)
		return orderreaderv1.Record{}, err
	}

	r.logger.Debug("order message read",
		logger.Field{Key: "offset", Value: msg.Offset},
		logger.Field{Key: "partition", Value: msg.Partition},
	)
	return record, nil
}

// Close properly closes the Kafka reader.
func (r *KafkaReader) Close() error {
	if err := r.kafkaReader.Close(); err != nil {
		r.logError(err, "Close")
		return err
	}
	return nil
}
