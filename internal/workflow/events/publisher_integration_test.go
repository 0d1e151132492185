//go:build integration

package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"shopflow/internal/workflow/events"
	"shopflow/internal/workflow/ports"
	id "shopflow/pkg/domain"
	"shopflow/pkg/testutil/containers"
)

func TestPublishAndConsume(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	broker := containers.GetManager().GetRedpanda(t).Broker
	topic := "shopflow.transitions." + uuid.NewString()

	publisher, err := events.New([]string{broker}, topic)
	require.NoError(t, err)
	require.NoError(t, publisher.EnsureTopic(ctx, 1, 1))

	entityID := uuid.NewString()
	want := ports.TransitionEvent{
		EventID:      uuid.NewString(),
		EntityType:   id.EntityTypeWorkOrder,
		EntityID:     entityID,
		From:         "NEW",
		To:           "IN_PROGRESS",
		Action:       "STATUS_CHANGED",
		ActorID:      uuid.NewString(),
		AuditEntryID: uuid.NewString(),
		OccurredAt:   time.Now().UTC().Format(time.RFC3339Nano),
	}
	publisher.Enqueue(want)

	closeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	require.NoError(t, publisher.Close(closeCtx))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	pollCtx, cancelPoll := context.WithTimeout(ctx, 30*time.Second)
	defer cancelPoll()
	fetches := consumer.PollFetches(pollCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, entityID, string(records[0].Key))

	var got ports.TransitionEvent
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, want, got)
}
