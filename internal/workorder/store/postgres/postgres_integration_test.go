//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"shopflow/internal/workorder"
	"shopflow/internal/workorder/store/postgres"
	id "shopflow/pkg/domain"
	dErrors "shopflow/pkg/domain-errors"
	"shopflow/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "work_orders"))
}

func newTestOrder(status id.StatusCode) workorder.WorkOrder {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return workorder.WorkOrder{
		ID:           id.EntityID(uuid.New()),
		Title:        "Clutch replacement",
		CustomerName: "M. Tamm",
		Status:       status,
		CreatedBy:    id.ActorID(uuid.New()),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	order := newTestOrder("NEW")
	s.Require().NoError(s.store.Create(ctx, order))

	found, err := s.store.FindByID(ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(order.Title, found.Title)
	s.Equal(id.StatusCode("NEW"), found.Status)

	_, err = s.store.FindByID(ctx, id.EntityID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *PostgresStoreSuite) TestListFilters() {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		order := newTestOrder("NEW")
		order.CreatedAt = order.CreatedAt.Add(time.Duration(i) * time.Second)
		s.Require().NoError(s.store.Create(ctx, order))
	}
	inProgress := newTestOrder("IN_PROGRESS")
	s.Require().NoError(s.store.Create(ctx, inProgress))

	all, err := s.store.List(ctx, workorder.Filters{Limit: 10})
	s.Require().NoError(err)
	s.Len(all, 4)

	status := id.StatusCode("IN_PROGRESS")
	filtered, err := s.store.List(ctx, workorder.Filters{Status: &status, Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(filtered, 1)
	s.Equal(inProgress.ID, filtered[0].ID)

	paged, err := s.store.List(ctx, workorder.Filters{Limit: 2, Offset: 2})
	s.Require().NoError(err)
	s.Len(paged, 2)
}

func (s *PostgresStoreSuite) TestUpdateStatus() {
	ctx := context.Background()
	order := newTestOrder("NEW")
	s.Require().NoError(s.store.Create(ctx, order))

	committed, err := s.store.UpdateStatus(ctx, order.ID, "NEW", "IN_PROGRESS")
	s.Require().NoError(err)
	s.Equal(id.StatusCode("IN_PROGRESS"), committed)

	// Stale expectation reports the winner's status.
	current, err := s.store.UpdateStatus(ctx, order.ID, "NEW", "CANCELLED")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal(id.StatusCode("IN_PROGRESS"), current)

	_, err = s.store.UpdateStatus(ctx, id.EntityID(uuid.New()), "NEW", "IN_PROGRESS")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// TestConcurrentStatusWriters verifies that racing transitions from the
// same observed status result in exactly one commit.
func (s *PostgresStoreSuite) TestConcurrentStatusWriters() {
	ctx := context.Background()
	order := newTestOrder("NEW")
	s.Require().NoError(s.store.Create(ctx, order))

	const goroutines = 20
	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			target := id.StatusCode("IN_PROGRESS")
			if i%2 == 1 {
				target = "CANCELLED"
			}
			_, err := s.store.UpdateStatus(ctx, order.ID, "NEW", target)
			switch {
			case err == nil:
				successCount.Add(1)
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflictCount.Add(1)
			default:
				s.T().Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	s.Equal(int32(goroutines-1), conflictCount.Load())
}
