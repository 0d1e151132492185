//go:build integration

package notification_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"shopflow/internal/notification"
	"shopflow/internal/notification/store/memory"
	id "shopflow/pkg/domain"
	"shopflow/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestUnreadCounterCache() {
	ctx := context.Background()
	svc, err := notification.New(memory.New(),
		notification.WithUnreadCache(s.redis.Client))
	s.Require().NoError(err)

	create := func(entity id.EntityID) id.NotificationID {
		notificationID, err := svc.Create(ctx, notification.Payload{
			Type:      "work_done",
			EntityID:  &entity,
			Title:     "Work order completed",
			CreatedBy: id.ActorID(uuid.New()),
		})
		s.Require().NoError(err)
		return notificationID
	}
	first := create(id.EntityID(uuid.New()))
	create(id.EntityID(uuid.New()))

	// First read populates the cache, second is served from it.
	count, err := svc.CountUnread(ctx)
	s.Require().NoError(err)
	s.Equal(2, count)
	count, err = svc.CountUnread(ctx)
	s.Require().NoError(err)
	s.Equal(2, count)

	// A write invalidates; the next read repopulates from the store.
	s.Require().NoError(svc.MarkRead(ctx, first))
	count, err = svc.CountUnread(ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}
