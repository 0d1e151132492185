package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"shopflow/internal/audit"
	audithandler "shopflow/internal/audit/handler"
	auditmem "shopflow/internal/audit/store/memory"
	"shopflow/internal/jwttoken"
	"shopflow/internal/notification"
	notificationhandler "shopflow/internal/notification/handler"
	notificationmem "shopflow/internal/notification/store/memory"
	"shopflow/internal/settings"
	settingsmem "shopflow/internal/settings/store/memory"
	"shopflow/internal/workflow/adapters"
	workflowhandler "shopflow/internal/workflow/handler"
	workflowservice "shopflow/internal/workflow/service"
	"shopflow/internal/workorder"
	workorderhandler "shopflow/internal/workorder/handler"
	workordermem "shopflow/internal/workorder/store/memory"
	id "shopflow/pkg/domain"
	"shopflow/pkg/requestcontext"
)

// Every feature handler registers on the one shared router. Registration must
// not collide, and each route group must stay reachable afterwards.
func TestAllHandlersRegisterOnOneRouter(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	auditSvc, err := audit.New(auditmem.New(), audit.WithLogger(log))
	require.NoError(t, err)
	notificationSvc, err := notification.New(notificationmem.New(), notification.WithLogger(log))
	require.NoError(t, err)

	settingsSvc, err := settings.New(settingsmem.New(), settings.WithLogger(log))
	require.NoError(t, err)
	_, err = settingsSvc.InitializeIfAbsent(ctx, settings.GroupWorkflowRules, settings.DefaultWorkflowRules())
	require.NoError(t, err)
	_, err = settingsSvc.InitializeIfAbsent(ctx, settings.GroupEscalation, settings.DefaultEscalation())
	require.NoError(t, err)
	require.NoError(t, settingsSvc.Load(ctx))

	orders := workordermem.New()
	orderSvc, err := workorder.New(orders, settingsSvc, workorder.WithLogger(log))
	require.NoError(t, err)

	mux := adapters.NewMux()
	mux.Register(id.EntityTypeWorkOrder, orders)
	guard, err := workflowservice.New(settingsSvc, mux, auditSvc, workflowservice.WithLogger(log))
	require.NoError(t, err)

	jwtService := jwttoken.NewJWTService("test-signing-key", "shopflow", "shopflow")

	router := chi.NewRouter()
	require.NotPanics(t, func() {
		workorderhandler.New(orderSvc, log, jwtService).Register(router)
		workflowhandler.New(guard, log, jwtService).Register(router)
		audithandler.New(auditSvc, log, jwtService).Register(router)
		notificationhandler.New(notificationSvc, log, jwtService).Register(router)
	})

	token, err := jwtService.GenerateAccessToken(requestcontext.Actor{
		ID:    id.ActorID(uuid.New()),
		Email: "mechanic@shopflow.test",
		Role:  id.Role("mechanic"),
	}, time.Hour)
	require.NoError(t, err)

	authorized := func(method, target string) *http.Request {
		req := httptest.NewRequest(method, target, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		return req
	}

	tests := []struct {
		name string
		req  *http.Request
		want int
	}{
		{"work orders reachable", authorized(http.MethodGet, "/work-orders"), http.StatusOK},
		{"allowed next reachable", authorized(http.MethodGet, "/workflow/work_order/statuses/NEW/next"), http.StatusOK},
		{"audit search reachable", authorized(http.MethodGet, "/admin/audit"), http.StatusOK},
		{"notifications reachable", authorized(http.MethodGet, "/notifications"), http.StatusOK},
		{"auth still enforced", httptest.NewRequest(http.MethodGet, "/notifications", nil), http.StatusUnauthorized},
		{"unknown route", authorized(http.MethodGet, "/nope"), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, tt.req)
			require.Equal(t, tt.want, rec.Code)
		})
	}
}
