package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/shubham-shewale/watchlist-widget/pkg/config"
	"github.com/shubham-shewale/watchlist-widget/pkg/models"
)

// Publisher forwards refreshed quotes to Kafka, keyed by symbol so a symbol's
// events stay on one partition in order.
type Publisher struct {
	writer      KafkaWriter
	clock       Clock
	logger      *zap.Logger
	mu          sync.Mutex
	seqCounters map[string]int64
}

func NewPublisher(writer KafkaWriter, clock Clock, logger *zap.Logger) *Publisher {
	return &Publisher{
		writer:      writer,
		clock:       clock,
		logger:      logger,
		seqCounters: make(map[string]int64),
	}
}

// Connect provisions the quote topic described by cfg and returns a publisher
// writing to it. A topic that cannot be provisioned is logged; the writer
// still reports every failed batch.
func Connect(ctx context.Context, cfg config.KafkaConfig, logger *zap.Logger) *Publisher {
	admin := &kafka.Client{Addr: kafka.TCP(cfg.Brokers...), Timeout: 10 * time.Second}
	spec := TopicSpec{Name: cfg.Topic, Partitions: cfg.Partitions, ReplicationFactor: cfg.ReplicationFactor}

	if err := NewTopicProvisioner(admin, RealClock{}, logger).Ensure(ctx, spec); err != nil {
		logger.Warn("Quote topic not provisioned", zap.Strings("brokers", cfg.Brokers), zap.Error(err))
	}
	return NewPublisher(NewKafkaWriter(cfg.Brokers, cfg.Topic, logger), RealClock{}, logger)
}

func NewKafkaWriter(brokers []string, topic string, logger *zap.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
		// a refresh pass is a burst of at most a few dozen quotes
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		// async writes only surface broker errors here
		Completion: BatchLogger(logger),
	}
}

// BatchLogger reports failed batches with the symbols they carried.
func BatchLogger(logger *zap.Logger) func(messages []kafka.Message, err error) {
	return func(messages []kafka.Message, err error) {
		if err == nil {
			return
		}
		symbols := make([]string, 0, len(messages))
		for _, m := range messages {
			symbols = append(symbols, string(m.Key))
		}
		logger.Error("Quote batch not delivered", zap.Strings("symbols", symbols), zap.Error(err))
	}
}

func (p *Publisher) Publish(ctx context.Context, q models.Quote) error {
	p.mu.Lock()
	p.seqCounters[q.Symbol]++
	seq := p.seqCounters[q.Symbol]
	p.mu.Unlock()

	payload, err := json.Marshal(models.QuoteEvent{
		Symbol:    q.Symbol,
		Price:     q.Price,
		Change:    q.Change,
		Timestamp: p.clock.Now().UnixMicro(),
		SeqID:     seq,
	})
	if err != nil {
		return fmt.Errorf("marshal quote event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(q.Symbol), Value: payload}); err != nil {
		return fmt.Errorf("kafka write %s: %w", q.Symbol, err)
	}
	p.logger.Debug("Sent quote", zap.String("symbol", q.Symbol), zap.Int64("seq_id", seq))
	return nil
}

// Close flushes buffered messages.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
