package worker_test

import (
	"encoding/json"
	"testing"

	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"changelog-digest/internal/worker"
)

type MockTrigger struct {
	mock.Mock
}

func (m *MockTrigger) Trigger(reason string) {
	m.Called(reason)
}

func TestRefreshConsumer_HandleMessage(t *testing.T) {
	tr := new(MockTrigger)
	tr.On("Trigger", "event").Return().Once()

	consumer := worker.NewRefreshConsumer(tr)

	body, _ := json.Marshal(worker.RefreshRequest{Reason: "release published", CorrelationID: "c-1"})
	err := consumer.HandleMessage(&nsq.Message{Body: body})

	assert.NoError(t, err)
	tr.AssertExpectations(t)
}

func TestRefreshConsumer_EmptyBody(t *testing.T) {
	tr := new(MockTrigger)
	tr.On("Trigger", "event").Return().Once()

	err := worker.NewRefreshConsumer(tr).HandleMessage(&nsq.Message{})

	assert.NoError(t, err)
	tr.AssertExpectations(t)
}

func TestRefreshConsumer_PoisonPill(t *testing.T) {
	tr := new(MockTrigger)
	consumer := worker.NewRefreshConsumer(tr)

	err := consumer.HandleMessage(&nsq.Message{Body: []byte("invalid json")})
	assert.NoError(t, err) // Should return nil (ack)
	tr.AssertNotCalled(t, "Trigger", mock.Anything)
}
