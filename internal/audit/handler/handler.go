// Package handler serves the audit trail to back office admins. The trail
// is read-only over HTTP; entries are only ever written by services.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"shopflow/internal/audit"
	"shopflow/internal/platform/middleware"
	id "shopflow/pkg/domain"
	dErrors "shopflow/pkg/domain-errors"
	"shopflow/pkg/platform/httputil"
	"shopflow/pkg/requestcontext"
)

// Service defines the audit read operations the handler exposes.
type Service interface {
	ByResource(ctx context.Context, resourceType id.EntityType, resourceID id.EntityID) ([]audit.Entry, error)
	Search(ctx context.Context, filters audit.Filters, limit, offset int) (audit.SearchResult, error)
}

// Handler serves the admin audit endpoints.
type Handler struct {
	logger    *slog.Logger
	audit     Service
	validator middleware.ActorValidator
}

func New(auditService Service, logger *slog.Logger, validator middleware.ActorValidator) *Handler {
	return &Handler{
		logger:    logger,
		audit:     auditService,
		validator: validator,
	}
}

// Register registers the audit routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.Logger(h.logger))
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.RequireAuth(h.validator, h.logger))

		r.Get("/admin/audit", h.handleSearch)
		r.Get("/admin/audit/{resourceType}/{resourceID}", h.handleByResource)
	})
}

type entryView struct {
	ID           string            `json:"id"`
	OccurredAt   time.Time         `json:"occurred_at"`
	ActorID      string            `json:"actor_id"`
	ActorEmail   string            `json:"actor_email,omitempty"`
	Action       string            `json:"action"`
	ResourceType string            `json:"resource_type"`
	ResourceID   string            `json:"resource_id"`
	Before       string            `json:"before,omitempty"`
	After        string            `json:"after,omitempty"`
	ClientIP     string            `json:"client_ip,omitempty"`
	UserAgent    string            `json:"user_agent,omitempty"`
	Device       string            `json:"device,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filters, err := parseFilters(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	result, err := h.audit.Search(ctx, filters, limit, offset)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit search failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to search audit trail"))
		return
	}

	views := make([]entryView, 0, len(result.Items))
	for _, entry := range result.Items {
		views = append(views, viewOf(entry))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"items": views,
		"total": result.Total,
	})
}

func (h *Handler) handleByResource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resourceType, err := id.ParseEntityType(chi.URLParam(r, "resourceType"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid resource type"))
		return
	}
	resourceID, err := id.ParseEntityID(chi.URLParam(r, "resourceID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid resource id"))
		return
	}

	entries, err := h.audit.ByResource(ctx, resourceType, resourceID)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit history read failed",
			"request_id", requestcontext.RequestID(ctx),
			"resource_type", resourceType,
			"resource_id", resourceID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to read audit history"))
		return
	}

	views := make([]entryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, viewOf(entry))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": views})
}

func parseFilters(r *http.Request) (audit.Filters, error) {
	q := r.URL.Query()
	var filters audit.Filters

	if raw := q.Get("resource_type"); raw != "" {
		resourceType, err := id.ParseEntityType(raw)
		if err != nil {
			return audit.Filters{}, dErrors.New(dErrors.CodeBadRequest, "invalid resource_type filter")
		}
		filters.ResourceType = &resourceType
	}
	if raw := q.Get("resource_id"); raw != "" {
		resourceID, err := id.ParseEntityID(raw)
		if err != nil {
			return audit.Filters{}, dErrors.New(dErrors.CodeBadRequest, "invalid resource_id filter")
		}
		filters.ResourceID = &resourceID
	}
	if raw := q.Get("actor_id"); raw != "" {
		actorID, err := id.ParseActorID(raw)
		if err != nil {
			return audit.Filters{}, dErrors.New(dErrors.CodeBadRequest, "invalid actor_id filter")
		}
		filters.ActorID = &actorID
	}
	if raw := q.Get("action"); raw != "" {
		action := audit.Action(raw)
		filters.Action = &action
	}
	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return audit.Filters{}, dErrors.New(dErrors.CodeBadRequest, "invalid from filter, want RFC 3339")
		}
		filters.FromDate = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return audit.Filters{}, dErrors.New(dErrors.CodeBadRequest, "invalid to filter, want RFC 3339")
		}
		filters.ToDate = &to
	}
	return filters, nil
}

func viewOf(entry audit.Entry) entryView {
	return entryView{
		ID:           entry.ID.String(),
		OccurredAt:   entry.Timestamp,
		ActorID:      entry.ActorID.String(),
		ActorEmail:   entry.ActorEmail,
		Action:       string(entry.Action),
		ResourceType: entry.ResourceType.String(),
		ResourceID:   entry.ResourceID.String(),
		Before:       entry.Before,
		After:        entry.After,
		ClientIP:     entry.Context.IP,
		UserAgent:    entry.Context.UserAgent,
		Device:       entry.Context.Device,
		Extra:        entry.Extra,
	}
}
