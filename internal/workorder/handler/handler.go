package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"shopflow/internal/platform/middleware"
	"shopflow/internal/workorder"
	id "shopflow/pkg/domain"
	dErrors "shopflow/pkg/domain-errors"
	"shopflow/pkg/platform/httputil"
	"shopflow/pkg/requestcontext"
)

// Service defines the work order operations the handler exposes.
type Service interface {
	Create(ctx context.Context, payload workorder.CreatePayload) (*workorder.WorkOrder, error)
	Get(ctx context.Context, entityID id.EntityID) (*workorder.WorkOrder, error)
	List(ctx context.Context, filters workorder.Filters) ([]workorder.WorkOrder, error)
}

// Handler serves the work order endpoints.
type Handler struct {
	logger     *slog.Logger
	workOrders Service
	validator  middleware.ActorValidator
}

func New(workOrders Service, logger *slog.Logger, validator middleware.ActorValidator) *Handler {
	return &Handler{
		logger:     logger,
		workOrders: workOrders,
		validator:  validator,
	}
}

// Register registers the work order routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.Logger(h.logger))
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.ClientMetadata)
		r.Use(middleware.RequireAuth(h.validator, h.logger))

		r.With(middleware.ContentTypeJSON).Post("/work-orders", h.handleCreate)
		r.Get("/work-orders", h.handleList)
		r.Get("/work-orders/{workOrderID}", h.handleGet)
	})
}

type createRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
}

type orderView struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	CustomerName string    `json:"customer_name,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := requestcontext.ActorFrom(ctx)
	if !ok {
		h.logger.ErrorContext(ctx, "actor missing from context despite auth middleware",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var body createRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	order, err := h.workOrders.Create(ctx, workorder.CreatePayload{
		Title:        body.Title,
		Description:  body.Description,
		CustomerName: body.CustomerName,
		CreatedBy:    actor.ID,
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) || dErrors.HasCode(err, dErrors.CodeMalformedTable) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create work order",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to create work order"))
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, viewOf(*order))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	entityID, err := id.ParseEntityID(chi.URLParam(r, "workOrderID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid work order id"))
		return
	}

	order, err := h.workOrders.Get(r.Context(), entityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, viewOf(*order))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := workorder.Filters{}
	filters.Limit, _ = strconv.Atoi(q.Get("limit"))
	filters.Offset, _ = strconv.Atoi(q.Get("offset"))
	if raw := q.Get("status"); raw != "" {
		status, err := id.ParseStatusCode(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid status filter"))
			return
		}
		filters.Status = &status
	}

	orders, err := h.workOrders.List(r.Context(), filters)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list work orders",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list work orders"))
		return
	}

	views := make([]orderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, viewOf(order))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": views})
}

func viewOf(order workorder.WorkOrder) orderView {
	return orderView{
		ID:           order.ID.String(),
		Title:        order.Title,
		Description:  order.Description,
		CustomerName: order.CustomerName,
		Status:       order.Status.String(),
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
}
