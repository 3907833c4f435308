//go:build integration

package postgres_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"customerapi/pkg/platform/audit"
	auditpostgres "customerapi/pkg/platform/audit/store/postgres"
	"customerapi/pkg/platform/tx"
	"customerapi/pkg/testutil/containers"
)

type OutboxStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *auditpostgres.Store
}

func TestOutboxStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(OutboxStoreSuite))
}

func (s *OutboxStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = auditpostgres.New(s.postgres.DB)
}

func (s *OutboxStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "outbox"))
}

func (s *OutboxStoreSuite) TestAppendFetchMark() {
	ctx := context.Background()
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Action:  audit.EventCustomerCreated.String(),
		Subject: "12",
		Email:   "alice@example.com",
	}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{Action: audit.EventCustomersCleared.String()}))

	entries, err := s.store.FetchUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("12", entries[0].AggregateID)
	s.Equal(audit.EventCustomerCreated.String(), entries[0].EventType)
	s.Equal(entries[1].ID.String(), entries[1].AggregateID, "events without a subject are keyed by their id")

	var payload audit.Payload
	s.Require().NoError(json.Unmarshal(entries[0].Payload, &payload))
	s.Equal("alice@example.com", payload.Email)
	s.Equal(entries[0].ID.String(), payload.ID)

	s.Require().NoError(s.store.MarkPublished(ctx, []uuid.UUID{entries[0].ID}))
	entries, err = s.store.FetchUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(audit.EventCustomersCleared.String(), entries[0].EventType)
}

func (s *OutboxStoreSuite) TestAppendRollsBackWithTransaction() {
	ctx := context.Background()
	rollback := errors.New("rollback")

	err := tx.Run(ctx, s.postgres.DB, func(txCtx context.Context) error {
		s.Require().NoError(s.store.Append(txCtx, audit.Event{Action: audit.EventCustomerDeleted.String(), Subject: "3"}))
		return rollback
	})
	s.Require().ErrorIs(err, rollback)

	entries, err := s.store.FetchUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Empty(entries)
}
