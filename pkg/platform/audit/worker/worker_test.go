package worker

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"customerapi/pkg/platform/audit"
	"customerapi/pkg/platform/audit/store/memory"
)

type recordingSink struct {
	mu      sync.Mutex
	batches [][]audit.OutboxEntry
	err     error
}

func (s *recordingSink) Publish(_ context.Context, entries []audit.OutboxEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, entries)
	return nil
}

func (s *recordingSink) delivered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

type WorkerSuite struct {
	suite.Suite
	outbox *memory.InMemoryStore
	sink   *recordingSink
}

func TestWorkerSuite(t *testing.T) {
	suite.Run(t, new(WorkerSuite))
}

func (s *WorkerSuite) SetupTest() {
	s.outbox = memory.NewInMemoryStore()
	s.sink = &recordingSink{}
}

func (s *WorkerSuite) appendEvents(n int) {
	for i := 0; i < n; i++ {
		s.Require().NoError(s.outbox.Append(context.Background(), audit.Event{Action: audit.EventCustomerCreated.String()}))
	}
}

func (s *WorkerSuite) pending() int {
	entries, err := s.outbox.FetchUnpublished(context.Background(), 1000)
	s.Require().NoError(err)
	return len(entries)
}

func (s *WorkerSuite) TestRelayOnceRespectsBatchSize() {
	s.appendEvents(5)
	w := NewWorker(s.outbox, s.sink, WithBatchSize(2))

	n, err := w.RelayOnce(context.Background())
	s.Require().NoError(err)
	s.Equal(2, n)
	s.Equal(3, s.pending())

	for s.pending() > 0 {
		_, err := w.RelayOnce(context.Background())
		s.Require().NoError(err)
	}
	s.Equal(5, s.sink.delivered())

	n, err = w.RelayOnce(context.Background())
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *WorkerSuite) TestFailedPublishKeepsEntries() {
	s.appendEvents(3)
	s.sink.err = errors.New("broker unavailable")
	w := NewWorker(s.outbox, s.sink)

	_, err := w.RelayOnce(context.Background())
	s.Require().Error(err)
	s.Equal(3, s.pending())

	s.sink.err = nil
	n, err := w.RelayOnce(context.Background())
	s.Require().NoError(err)
	s.Equal(3, n)
	s.Zero(s.pending())
}

func (s *WorkerSuite) TestRunDrainsFullBatchesPerTick() {
	s.appendEvents(7)
	w := NewWorker(s.outbox, s.sink, WithInterval(5*time.Millisecond), WithBatchSize(3))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	s.Eventually(func() bool { return s.sink.delivered() == 7 }, time.Second, 5*time.Millisecond)
	cancel()
	s.ErrorIs(<-done, context.Canceled)
}

func (s *WorkerSuite) TestRunMakesFinalPassOnShutdown() {
	w := NewWorker(s.outbox, s.sink, WithInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	s.appendEvents(2)
	cancel()
	<-done

	s.Equal(2, s.sink.delivered())
	s.Zero(s.pending())
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := sink.Publish(context.Background(), []audit.OutboxEntry{{
		AggregateID: "7",
		EventType:   audit.EventCustomerDeleted.String(),
		Payload:     []byte(`{"action":"customer_deleted"}`),
	}})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"event_type":"customer_deleted"`)
	assert.Contains(t, buf.String(), `"aggregate_id":"7"`)
}
