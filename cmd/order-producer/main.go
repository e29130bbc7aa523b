package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	ledgerv1 "github.com/muhammadchandra19/exchange/internal/domain/ledger/v1"
	orderreader "github.com/muhammadchandra19/exchange/internal/usecase/order-reader"
	"github.com/muhammadchandra19/exchange/pkg/logger"
)

// generateTrader creates a random trader name
func generateTrader(rng *rand.Rand) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	var result strings.Builder
	result.WriteString("T-")
	for i := 0; i < 4; i++ {
		result.WriteByte(charset[rng.Intn(len(charset))])
	}
	return result.String()
}

// generateOrders creates count random orders spread over the given stocks.
// A share of malformedRate orders carries an unparsable quantity.
func generateOrders(rng *rand.Rand, count int, stocks []string, maxQuantity int, malformedRate float64) []orderreader.OrderMessage {
	orders := make([]orderreader.OrderMessage, count)
	for i := range orders {
		side := ledgerv1.Buy
		if rng.Float64() < 0.5 {
			side = ledgerv1.Sell
		}

		quantity := strconv.Itoa(rng.Intn(maxQuantity) + 1)
		if rng.Float64() < malformedRate {
			quantity = "n/a"
		}

		orders[i] = orderreader.OrderMessage{
			Trader:   generateTrader(rng),
			Stock:    stocks[rng.Intn(len(stocks))],
			Quantity: json.Number(quantity),
			Side:     side.String(),
		}
	}
	return orders
}

func writeCSV(path string, orders []orderreader.OrderMessage) error {
	out := os.Stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	for _, o := range orders {
		if err := w.Write([]string{o.Trader, o.Stock, o.Quantity.String(), o.Side}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeKafka(ctx context.Context, log *logger.Logger, brokers []string, topic string, delay time.Duration, orders []orderreader.OrderMessage) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	defer writer.Close()

	for i, order := range orders {
		msg := kafka.Message{
			Key:   []byte(order.Stock),
			Value: order.ToBytes(),
			Time:  time.Now(),
		}

		if err := writer.WriteMessages(ctx, msg); err != nil {
			log.Error(err,
				logger.Field{Key: "action", Value: "send_order"},
				logger.Field{Key: "index", Value: i + 1},
			)
			continue
		}

		// Log progress every 100 orders or for the last order
		if (i+1)%100 == 0 || i == len(orders)-1 {
			log.Info("Orders sent",
				logger.Field{Key: "sent", Value: i + 1},
				logger.Field{Key: "total", Value: len(orders)},
			)
		}

		if delay > 0 && i < len(orders)-1 {
			time.Sleep(delay)
		}
	}
}

func main() {
	var (
		output        = flag.String("output", "csv", "Output: csv or kafka")
		file          = flag.String("file", "orders.csv", "CSV file to write, - for stdout")
		brokers       = flag.String("brokers", "localhost:9092", "Kafka broker addresses (comma-separated)")
		topic         = flag.String("topic", "orders", "Kafka topic name")
		delay         = flag.Duration("delay", 0, "Delay between sending orders to Kafka")
		count         = flag.Int("count", 1000, "Number of orders to generate")
		stocks        = flag.String("stocks", "AAPL,MSFT,GOOG,AMZN", "Stocks to trade (comma-separated)")
		maxQuantity   = flag.Int("max-quantity", 100, "Maximum order quantity")
		malformedRate = flag.Float64("malformed-rate", 0, "Share of orders with an invalid quantity")
		seed          = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	)
	flag.Parse()

	log, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck

	rng := rand.New(rand.NewSource(*seed))
	orders := generateOrders(rng, *count, strings.Split(*stocks, ","), *maxQuantity, *malformedRate)
	log.Info("Generated orders", logger.Field{Key: "count", Value: len(orders)}, logger.Field{Key: "seed", Value: *seed})

	switch *output {
	case "kafka":
		writeKafka(context.Background(), log, strings.Split(*brokers, ","), *topic, *delay, orders)
	default:
		if err := writeCSV(*file, orders); err != nil {
			log.Error(err, logger.Field{Key: "action", Value: "write_csv"})
			os.Exit(1)
		}
	}
}
