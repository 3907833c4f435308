package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"customerapi/pkg/platform/audit"
	"customerapi/pkg/platform/audit/store/memory"
	"customerapi/pkg/requestcontext"
)

type PublisherSuite struct {
	suite.Suite
	store     *memory.InMemoryStore
	publisher *Publisher
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupTest() {
	s.store = memory.NewInMemoryStore()
	s.publisher = New(s.store)
}

func (s *PublisherSuite) TestEmitFillsFromContext() {
	now := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithRequestID(ctx, "req-42")
	ctx = requestcontext.WithClientMetadata(ctx, "10.0.0.1", "curl/8")

	err := s.publisher.Emit(ctx, audit.Event{
		Action:  audit.EventCustomerCreated.String(),
		Subject: "7",
		Email:   "alice@example.com",
	})
	s.Require().NoError(err)

	events, err := s.store.ListAll(context.Background())
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(now, events[0].Timestamp)
	s.Equal(audit.CategoryCompliance, events[0].Category)
	s.Equal("req-42", events[0].RequestID)
	s.Equal("10.0.0.1", events[0].ClientIP)
}

func (s *PublisherSuite) TestEmitKeepsExplicitFields() {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	err := s.publisher.Emit(context.Background(), audit.Event{
		Action:    audit.EventCustomersCleared.String(),
		Category:  audit.CategoryCompliance,
		Timestamp: ts,
		RequestID: "explicit",
	})
	s.Require().NoError(err)

	events, err := s.store.ListAll(context.Background())
	s.Require().NoError(err)
	s.Equal(ts, events[0].Timestamp)
	s.Equal(audit.CategoryCompliance, events[0].Category)
	s.Equal("explicit", events[0].RequestID)
}

func (s *PublisherSuite) TestEmitRequiresAction() {
	err := s.publisher.Emit(context.Background(), audit.Event{Subject: "1"})
	s.Require().Error(err)

	events, err := s.store.ListAll(context.Background())
	s.Require().NoError(err)
	s.Empty(events)
}

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error {
	return errors.New("disk full")
}

func TestEmitFailsClosed(t *testing.T) {
	p := New(failingStore{})

	err := p.Emit(context.Background(), audit.Event{Action: audit.EventCustomerDeleted.String()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "compliance audit persistence failed")
	assert.Contains(t, err.Error(), "disk full")
}
