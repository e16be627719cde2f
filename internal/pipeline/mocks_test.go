package pipeline_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"changelog-digest/internal/pipeline"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context) (*pipeline.RawDocument, error) {
	args := m.Called(ctx)
	doc, _ := args.Get(0).(*pipeline.RawDocument)
	return doc, args.Error(1)
}

type MockSummarizer struct {
	mock.Mock
}

func (m *MockSummarizer) Summarize(ctx context.Context, chunk string) (string, error) {
	args := m.Called(ctx, chunk)
	return args.String(0), args.Error(1)
}

type MockSummaryStore struct {
	mock.Mock
}

func (m *MockSummaryStore) Insert(ctx context.Context, rec pipeline.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockSummaryStore) FindLatest(ctx context.Context) (*pipeline.Record, error) {
	args := m.Called(ctx)
	rec, _ := args.Get(0).(*pipeline.Record)
	return rec, args.Error(1)
}

type MockRunRecorder struct {
	mock.Mock
}

func (m *MockRunRecorder) Record(ctx context.Context, report pipeline.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

// memoryStore keeps inserted records in order.
type memoryStore struct {
	mu      sync.Mutex
	records []pipeline.Record
}

func (s *memoryStore) Insert(_ context.Context, rec pipeline.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *memoryStore) FindLatest(context.Context) (*pipeline.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return nil, pipeline.ErrNoRecord
	}
	rec := s.records[len(s.records)-1]
	return &rec, nil
}

type capturePublisher struct {
	mu     sync.Mutex
	topics []string
	bodies [][]byte
}

func (p *capturePublisher) Publish(topic string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.bodies = append(p.bodies, body)
	return nil
}
