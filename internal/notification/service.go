package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	id "shopflow/pkg/domain"
	dErrors "shopflow/pkg/domain-errors"
	"shopflow/pkg/requestcontext"
)

// Store is the persistence contract for notifications. CreateIfAbsent must
// behave atomically at the storage boundary: under concurrent identical
// calls exactly one record is created and every caller gets the same ID.
type Store interface {
	CreateIfAbsent(ctx context.Context, record Record) (id.NotificationID, bool, error)
	FindByID(ctx context.Context, notificationID id.NotificationID) (*Record, error)
	List(ctx context.Context, limit, offset int) ([]Record, error)
	MarkRead(ctx context.Context, notificationID id.NotificationID) error
	CountUnread(ctx context.Context) (int, error)
}

// DedupeObserver is notified when a create call collapsed onto an existing
// record. Wired to metrics in production.
type DedupeObserver interface {
	Inc()
}

// Service creates notifications idempotently per (entity, type, day).
type Service struct {
	store  Store
	cache  redis.Cmdable
	logger *slog.Logger
	dedups DedupeObserver
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithUnreadCache keeps the unread counter in Redis so dashboards can poll
// it cheaply. Nil disables caching; reads then fall through to the store.
func WithUnreadCache(cache redis.Cmdable) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithDedupeObserver(o DedupeObserver) Option {
	return func(s *Service) {
		s.dedups = o
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("notification store is required")
	}
	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

const unreadCountKey = "shopflow:notifications:unread"

// Create inserts a notification unless one already exists for the same
// dedup key. Both the creator and every deduplicated caller receive the ID
// of the surviving record.
func (s *Service) Create(ctx context.Context, payload Payload) (id.NotificationID, error) {
	if payload.Type == "" {
		return id.NotificationID{}, dErrors.New(dErrors.CodeValidation, "notification type is required")
	}
	if payload.Title == "" {
		return id.NotificationID{}, dErrors.New(dErrors.CodeValidation, "notification title is required")
	}

	createdAt := requestcontext.Now(ctx)
	record := Record{
		ID:        id.NewNotificationID(),
		Type:      payload.Type,
		EntityID:  payload.EntityID,
		DedupKey:  DedupKey(payload.EntityID, payload.Type, payload.NotifyAt, createdAt),
		NotifyAt:  payload.NotifyAt,
		CreatedAt: createdAt,
		CreatedBy: payload.CreatedBy,
		Title:     payload.Title,
		Message:   payload.Message,
	}

	notificationID, created, err := s.store.CreateIfAbsent(ctx, record)
	if err != nil {
		return id.NotificationID{}, dErrors.Wrap(err, dErrors.CodeInternal, "create notification")
	}

	if created {
		s.invalidateUnread(ctx)
	} else {
		if s.dedups != nil {
			s.dedups.Inc()
		}
		if s.logger != nil {
			s.logger.DebugContext(ctx, "notification deduplicated",
				"dedup_key", record.DedupKey,
				"notification_id", notificationID,
			)
		}
	}
	return notificationID, nil
}

// MarkRead flips IsRead on one record. This is the only mutation
// notifications support.
func (s *Service) MarkRead(ctx context.Context, notificationID id.NotificationID) error {
	record, err := s.store.FindByID(ctx, notificationID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "find notification")
	}
	if record == nil {
		return dErrors.New(dErrors.CodeNotFound, "notification not found")
	}
	if record.IsRead {
		return nil
	}
	if err := s.store.MarkRead(ctx, notificationID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "mark notification read")
	}
	s.invalidateUnread(ctx)
	return nil
}

// List returns one page of notifications, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	records, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list notifications")
	}
	return records, nil
}

// CountUnread serves the unread counter from Redis when cached, falling
// through to the store otherwise.
func (s *Service) CountUnread(ctx context.Context) (int, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, unreadCountKey).Result()
		if err == nil {
			if count, convErr := strconv.Atoi(raw); convErr == nil {
				return count, nil
			}
		}
	}

	count, err := s.store.CountUnread(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "count unread notifications")
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, unreadCountKey, count, 0).Err()
	}
	return count, nil
}

// invalidateUnread drops the cached counter after a write; the next
// CountUnread repopulates it from the store. Cache errors are logged and
// ignored: the store remains the source of truth.
func (s *Service) invalidateUnread(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, unreadCountKey).Err(); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to invalidate unread counter cache", "error", err)
	}
}
