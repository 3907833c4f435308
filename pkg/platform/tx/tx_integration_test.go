//go:build integration

package tx_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"customerapi/pkg/platform/tx"
	"customerapi/pkg/testutil/containers"
)

type RunSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
}

func TestRunSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RunSuite))
}

func (s *RunSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
}

func (s *RunSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "customers"))
}

func (s *RunSuite) countCustomers() int {
	var n int
	s.Require().NoError(s.postgres.DB.QueryRow(`SELECT count(*) FROM customers`).Scan(&n))
	return n
}

func (s *RunSuite) TestAfterCommitRunsOnceCommitted() {
	ctx := context.Background()
	var seen []int

	err := tx.Run(ctx, s.postgres.DB, func(txCtx context.Context) error {
		_, err := tx.Conn(txCtx, s.postgres.DB).ExecContext(txCtx,
			`INSERT INTO customers (name, email) VALUES ('Alice', 'alice@example.com')`)
		s.Require().NoError(err)
		s.True(tx.AfterCommit(txCtx, func(context.Context) { seen = append(seen, s.countCustomers()) }))
		s.Empty(seen, "callbacks wait for the commit")
		return nil
	})

	s.Require().NoError(err)
	s.Equal([]int{1}, seen, "callback observes committed data")
}

func (s *RunSuite) TestAfterCommitDroppedOnRollback() {
	ctx := context.Background()
	rollback := errors.New("rollback")
	called := false

	err := tx.Run(ctx, s.postgres.DB, func(txCtx context.Context) error {
		tx.AfterCommit(txCtx, func(context.Context) { called = true })
		return rollback
	})

	s.Require().ErrorIs(err, rollback)
	s.False(called)
}

func (s *RunSuite) TestNestedRunDefersToOuterCommit() {
	ctx := context.Background()
	calls := 0

	err := tx.Run(ctx, s.postgres.DB, func(outer context.Context) error {
		err := tx.Run(outer, s.postgres.DB, func(inner context.Context) error {
			tx.AfterCommit(inner, func(context.Context) { calls++ })
			return nil
		})
		s.Require().NoError(err)
		s.Zero(calls, "inner Run joins the outer transaction")
		return nil
	})

	s.Require().NoError(err)
	s.Equal(1, calls)
}
