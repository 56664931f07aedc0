package publisher

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// Clock stamps events and paces the topic readiness checks.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// TopicAdmin is the slice of *kafka.Client used to provision the quote topic.
type TopicAdmin interface {
	CreateTopics(ctx context.Context, req *kafka.CreateTopicsRequest) (*kafka.CreateTopicsResponse, error)
	Metadata(ctx context.Context, req *kafka.MetadataRequest) (*kafka.MetadataResponse, error)
}

var _ TopicAdmin = (*kafka.Client)(nil)

type RealClock struct{}

func (RealClock) Now() time.Time                         { return time.Now() }
func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
