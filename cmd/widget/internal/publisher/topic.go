package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	readyAttempts = 5
	readyBackoff  = 200 * time.Millisecond
)

var ErrTopicNotReady = errors.New("quote topic not ready")

// TopicSpec describes the topic quotes are published to.
type TopicSpec struct {
	Name              string
	Partitions        int
	ReplicationFactor int
}

// TopicProvisioner creates the quote topic and waits until the cluster
// metadata lists its partitions.
type TopicProvisioner struct {
	admin  TopicAdmin
	clock  Clock
	logger *zap.Logger
}

func NewTopicProvisioner(admin TopicAdmin, clock Clock, logger *zap.Logger) *TopicProvisioner {
	return &TopicProvisioner{admin: admin, clock: clock, logger: logger}
}

// Ensure creates spec.Name unless it already exists, then waits for it.
func (tp *TopicProvisioner) Ensure(ctx context.Context, spec TopicSpec) error {
	resp, err := tp.admin.CreateTopics(ctx, &kafka.CreateTopicsRequest{
		Topics: []kafka.TopicConfig{{
			Topic:             spec.Name,
			NumPartitions:     spec.Partitions,
			ReplicationFactor: spec.ReplicationFactor,
		}},
	})
	if err != nil {
		return fmt.Errorf("create topic %s: %w", spec.Name, err)
	}

	switch err := resp.Errors[spec.Name]; {
	case err == nil:
		tp.logger.Info("Quote topic created", zap.String("topic", spec.Name), zap.Int("partitions", spec.Partitions))
	case errors.Is(err, kafka.TopicAlreadyExists):
		tp.logger.Debug("Quote topic already exists", zap.String("topic", spec.Name))
	default:
		return fmt.Errorf("create topic %s: %w", spec.Name, err)
	}

	return tp.waitReady(ctx, spec.Name)
}

func (tp *TopicProvisioner) waitReady(ctx context.Context, topic string) error {
	var lastErr error
	for attempt := 1; ; attempt++ {
		partitions, err := tp.partitions(ctx, topic)
		if err == nil && partitions > 0 {
			tp.logger.Info("Quote topic is ready", zap.String("topic", topic), zap.Int("partitions", partitions))
			return nil
		}
		lastErr = err

		if attempt == readyAttempts {
			if lastErr != nil {
				return fmt.Errorf("%w: %s: %w", ErrTopicNotReady, topic, lastErr)
			}
			return fmt.Errorf("%w: %s", ErrTopicNotReady, topic)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tp.clock.After(readyBackoff):
		}
	}
}

func (tp *TopicProvisioner) partitions(ctx context.Context, topic string) (int, error) {
	meta, err := tp.admin.Metadata(ctx, &kafka.MetadataRequest{Topics: []string{topic}})
	if err != nil {
		return 0, err
	}
	for _, t := range meta.Topics {
		if t.Name == topic {
			return len(t.Partitions), t.Error
		}
	}
	return 0, nil
}
