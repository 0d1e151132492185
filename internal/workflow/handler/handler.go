package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"shopflow/internal/platform/middleware"
	"shopflow/internal/workflow/models"
	id "shopflow/pkg/domain"
	dErrors "shopflow/pkg/domain-errors"
	"shopflow/pkg/platform/httputil"
	"shopflow/pkg/requestcontext"
)

// Service defines the transition operations the handler exposes.
type Service interface {
	RequestTransition(ctx context.Context, req models.TransitionRequest) (*models.TransitionResult, error)
	AllowedNext(entityType id.EntityType, from id.StatusCode) ([]models.Status, error)
}

// Handler serves the transition endpoints.
type Handler struct {
	logger    *slog.Logger
	workflow  Service
	validator middleware.ActorValidator
}

func New(workflow Service, logger *slog.Logger, validator middleware.ActorValidator) *Handler {
	return &Handler{
		logger:    logger,
		workflow:  workflow,
		validator: validator,
	}
}

// Register registers the workflow routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.Logger(h.logger))
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.ClientMetadata)
		r.Use(middleware.RequireAuth(h.validator, h.logger))

		r.With(middleware.ContentTypeJSON).Post("/workflow/transitions", h.handleRequestTransition)
		r.Get("/workflow/{entityType}/statuses/{from}/next", h.handleAllowedNext)
	})
}

type transitionRequest struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	From       string `json:"from"`
	To         string `json:"to"`
	Reason     string `json:"reason,omitempty"`
	Override   bool   `json:"override,omitempty"`
}

type transitionResponse struct {
	EntityType   string `json:"entity_type"`
	EntityID     string `json:"entity_id"`
	Status       string `json:"status"`
	AuditEntryID string `json:"audit_entry_id,omitempty"`
	Overridden   bool   `json:"overridden"`
	NoOp         bool   `json:"no_op"`
}

func (h *Handler) handleRequestTransition(w http.ResponseWriter, r *http.Request) {
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

	var body transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.WarnContext(ctx, "invalid transition request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	req, err := h.buildRequest(actor, body)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.workflow.RequestTransition(ctx, req)
	if err != nil {
		switch {
		case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
			// The status change committed but its audit entry did not.
			h.logger.ErrorContext(ctx, "transition committed without audit entry",
				"request_id", requestID,
				"entity_type", req.EntityType,
				"entity_id", req.EntityID,
				"error", err.Error(),
			)
			httputil.WriteError(w, err)
		case dErrors.HasCode(err, dErrors.CodeInternal):
			h.logger.ErrorContext(ctx, "transition failed",
				"request_id", requestID,
				"error", err.Error(),
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to process transition"))
		default:
			h.logger.WarnContext(ctx, "transition rejected",
				"request_id", requestID,
				"entity_type", req.EntityType,
				"entity_id", req.EntityID,
				"error", err.Error(),
			)
			httputil.WriteError(w, err)
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, transitionResponse{
		EntityType:   result.EntityType.String(),
		EntityID:     result.EntityID.String(),
		Status:       result.Status.String(),
		AuditEntryID: auditEntryID(result),
		Overridden:   result.Overridden,
		NoOp:         result.NoOp,
	})
}

type statusView struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

func (h *Handler) handleAllowedNext(w http.ResponseWriter, r *http.Request) {
	entityType, err := id.ParseEntityType(chi.URLParam(r, "entityType"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid entity type"))
		return
	}
	from, err := id.ParseStatusCode(chi.URLParam(r, "from"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid status code"))
		return
	}

	next, err := h.workflow.AllowedNext(entityType, from)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	views := make([]statusView, 0, len(next))
	for _, st := range next {
		views = append(views, statusView{Code: st.Code.String(), Label: st.Label})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"next": views})
}

func (h *Handler) buildRequest(actor requestcontext.Actor, body transitionRequest) (models.TransitionRequest, error) {
	entityType, err := id.ParseEntityType(body.EntityType)
	if err != nil {
		return models.TransitionRequest{}, dErrors.New(dErrors.CodeValidation, "invalid entity type")
	}
	entityID, err := id.ParseEntityID(body.EntityID)
	if err != nil {
		return models.TransitionRequest{}, dErrors.New(dErrors.CodeValidation, "invalid entity id")
	}
	from, err := id.ParseStatusCode(body.From)
	if err != nil {
		return models.TransitionRequest{}, dErrors.New(dErrors.CodeValidation, "invalid from status")
	}
	to, err := id.ParseStatusCode(body.To)
	if err != nil {
		return models.TransitionRequest{}, dErrors.New(dErrors.CodeValidation, "invalid to status")
	}
	return models.TransitionRequest{
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actor.ID,
		ActorEmail: actor.Email,
		ActorRole:  actor.Role,
		From:       from,
		To:         to,
		Reason:     body.Reason,
		Override:   body.Override,
	}, nil
}

func auditEntryID(result *models.TransitionResult) string {
	if result.AuditEntryID.IsNil() {
		return ""
	}
	return result.AuditEntryID.String()
}
