package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/segmentio/kafka-go"
)

type MockKafkaWriter struct {
	Messages   []kafka.Message
	Mu         sync.Mutex
	ShouldFail bool
	Closed     bool
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.ShouldFail {
		return errors.New("kafka error")
	}
	m.Messages = append(m.Messages, msgs...)
	return nil
}

func (m *MockKafkaWriter) Close() error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
	return nil
}

// MockTopicAdmin answers CreateTopics and reports the topic ready after
// ReadyAfter metadata calls. ReadyAfter < 0 never reports it ready.
type MockTopicAdmin struct {
	Mu            sync.Mutex
	Created       []kafka.TopicConfig
	CreateErr     error // transport failure
	TopicErr      error // per-topic error inside the response
	ReadyAfter    int
	MetadataCalls int
}

func (m *MockTopicAdmin) CreateTopics(ctx context.Context, req *kafka.CreateTopicsRequest) (*kafka.CreateTopicsResponse, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	resp := &kafka.CreateTopicsResponse{Errors: make(map[string]error)}
	for _, t := range req.Topics {
		m.Created = append(m.Created, t)
		resp.Errors[t.Topic] = m.TopicErr
	}
	return resp, nil
}

func (m *MockTopicAdmin) Metadata(ctx context.Context, req *kafka.MetadataRequest) (*kafka.MetadataResponse, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.MetadataCalls++
	if m.ReadyAfter < 0 || m.MetadataCalls <= m.ReadyAfter {
		return &kafka.MetadataResponse{}, nil
	}
	resp := &kafka.MetadataResponse{}
	for _, name := range req.Topics {
		resp.Topics = append(resp.Topics, kafka.Topic{Name: name, Partitions: []kafka.Partition{{Topic: name, ID: 0}}})
	}
	return resp, nil
}
