package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"shopflow/internal/notification"
	"shopflow/internal/platform/middleware"
	id "shopflow/pkg/domain"
	dErrors "shopflow/pkg/domain-errors"
	"shopflow/pkg/platform/httputil"
	"shopflow/pkg/requestcontext"
)

// Service defines the notification operations the handler exposes.
type Service interface {
	List(ctx context.Context, limit, offset int) ([]notification.Record, error)
	MarkRead(ctx context.Context, notificationID id.NotificationID) error
	CountUnread(ctx context.Context) (int, error)
}

// Handler serves the back office notification endpoints.
type Handler struct {
	logger        *slog.Logger
	notifications Service
	validator     middleware.ActorValidator
}

func New(notifications Service, logger *slog.Logger, validator middleware.ActorValidator) *Handler {
	return &Handler{
		logger:        logger,
		notifications: notifications,
		validator:     validator,
	}
}

// Register registers the notification routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.Logger(h.logger))
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.RequireAuth(h.validator, h.logger))

		r.Get("/notifications", h.handleList)
		r.Get("/notifications/unread-count", h.handleUnreadCount)
		r.Post("/notifications/{notificationID}/read", h.handleMarkRead)
	})
}

type recordView struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	EntityID  string     `json:"entity_id,omitempty"`
	NotifyAt  *time.Time `json:"notify_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Title     string     `json:"title"`
	Message   string     `json:"message,omitempty"`
	IsRead    bool       `json:"is_read"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	records, err := h.notifications.List(ctx, limit, offset)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list notifications",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list notifications"))
		return
	}

	views := make([]recordView, 0, len(records))
	for _, record := range records {
		view := recordView{
			ID:        record.ID.String(),
			Type:      record.Type,
			NotifyAt:  record.NotifyAt,
			CreatedAt: record.CreatedAt,
			Title:     record.Title,
			Message:   record.Message,
			IsRead:    record.IsRead,
		}
		if record.EntityID != nil {
			view.EntityID = record.EntityID.String()
		}
		views = append(views, view)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": views})
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := h.notifications.CountUnread(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to count unread notifications",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to count unread notifications"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "notificationID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid notification id"))
		return
	}

	if err := h.notifications.MarkRead(ctx, notificationID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to mark notification read",
			"request_id", requestcontext.RequestID(ctx),
			"notification_id", notificationID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to mark notification read"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
