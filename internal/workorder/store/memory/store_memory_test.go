package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopflow/internal/workorder"
	id "shopflow/pkg/domain"
	dErrors "shopflow/pkg/domain-errors"
)

func newOrder(status id.StatusCode) workorder.WorkOrder {
	now := time.Now().UTC()
	return workorder.WorkOrder{
		ID:        id.EntityID(uuid.New()),
		Title:     "Brake pad replacement",
		Status:    status,
		CreatedBy: id.ActorID(uuid.New()),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAndFind(t *testing.T) {
	store := New()
	ctx := context.Background()

	order := newOrder("NEW")
	require.NoError(t, store.Create(ctx, order))

	found, err := store.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Title, found.Title)
	assert.Equal(t, id.StatusCode("NEW"), found.Status)

	// Duplicate IDs are a caller bug, not a silent overwrite.
	require.Error(t, store.Create(ctx, order))

	_, err = store.FindByID(ctx, id.EntityID(uuid.New()))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestList(t *testing.T) {
	store := New()
	ctx := context.Background()

	oldest := newOrder("NEW")
	oldest.CreatedAt = time.Now().UTC().Add(-time.Hour)
	middle := newOrder("IN_PROGRESS")
	middle.CreatedAt = time.Now().UTC().Add(-time.Minute)
	newest := newOrder("NEW")

	for _, o := range []workorder.WorkOrder{oldest, middle, newest} {
		require.NoError(t, store.Create(ctx, o))
	}

	all, err := store.List(ctx, workorder.Filters{Limit: 10})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, newest.ID, all[0].ID)
	assert.Equal(t, oldest.ID, all[2].ID)

	status := id.StatusCode("NEW")
	filtered, err := store.List(ctx, workorder.Filters{Status: &status, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	paged, err := store.List(ctx, workorder.Filters{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, middle.ID, paged[0].ID)

	empty, err := store.List(ctx, workorder.Filters{Limit: 10, Offset: 99})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUpdateStatus(t *testing.T) {
	store := New()
	ctx := context.Background()

	order := newOrder("NEW")
	require.NoError(t, store.Create(ctx, order))

	committed, err := store.UpdateStatus(ctx, order.ID, "NEW", "IN_PROGRESS")
	require.NoError(t, err)
	assert.Equal(t, id.StatusCode("IN_PROGRESS"), committed)

	found, err := store.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, id.StatusCode("IN_PROGRESS"), found.Status)

	// Stale expectation: the caller learns the real current status.
	current, err := store.UpdateStatus(ctx, order.ID, "NEW", "CANCELLED")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.Equal(t, id.StatusCode("IN_PROGRESS"), current)

	_, err = store.UpdateStatus(ctx, id.EntityID(uuid.New()), "NEW", "IN_PROGRESS")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

// Two racers read the same current status and both try to move the order.
// Exactly one commit wins; the loser gets a conflict carrying the winner's
// status.
func TestUpdateStatusConcurrentRace(t *testing.T) {
	store := New()
	ctx := context.Background()

	order := newOrder("NEW")
	require.NoError(t, store.Create(ctx, order))

	const racers = 50
	targets := []id.StatusCode{"IN_PROGRESS", "CANCELLED"}

	var wg sync.WaitGroup
	results := make([]error, racers)
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := store.UpdateStatus(ctx, order.ID, "NEW", targets[i%len(targets)])
			results[i] = err
		}(i)
	}
	close(start)
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	}
	assert.Equal(t, 1, wins)

	found, err := store.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Contains(t, targets, found.Status)
}
