package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"shopflow/internal/audit"
	audithandler "shopflow/internal/audit/handler"
	auditmem "shopflow/internal/audit/store/memory"
	auditpg "shopflow/internal/audit/store/postgres"
	"shopflow/internal/jwttoken"
	"shopflow/internal/notification"
	notificationhandler "shopflow/internal/notification/handler"
	notificationmem "shopflow/internal/notification/store/memory"
	notificationpg "shopflow/internal/notification/store/postgres"
	"shopflow/internal/platform/config"
	"shopflow/internal/platform/database"
	"shopflow/internal/platform/httpserver"
	"shopflow/internal/platform/logger"
	"shopflow/internal/platform/metrics"
	"shopflow/internal/platform/middleware"
	platformredis "shopflow/internal/platform/redis"
	"shopflow/internal/settings"
	settingsmem "shopflow/internal/settings/store/memory"
	settingspg "shopflow/internal/settings/store/postgres"
	"shopflow/internal/workflow/adapters"
	"shopflow/internal/workflow/events"
	workflowhandler "shopflow/internal/workflow/handler"
	workflowservice "shopflow/internal/workflow/service"
	"shopflow/internal/workorder"
	workorderhandler "shopflow/internal/workorder/handler"
	workordermem "shopflow/internal/workorder/store/memory"
	workorderpg "shopflow/internal/workorder/store/postgres"
	id "shopflow/pkg/domain"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.ApplySchema(ctx, db); err != nil {
			return err
		}
		log.Info("connected to postgres")
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	var (
		auditStore        audit.Store
		notificationStore notification.Store
		settingsStore     settings.Store
		orderStore        workorder.Store
		orderWriter       adapters.StatusWriter
	)
	if db != nil {
		auditStore = auditpg.New(db)
		notificationStore = notificationpg.New(db)
		settingsStore = settingspg.New(db)
		pgOrders := workorderpg.New(db)
		orderStore = pgOrders
		orderWriter = pgOrders
	} else {
		auditStore = auditmem.New()
		notificationStore = notificationmem.New()
		settingsStore = settingsmem.New()
		memOrders := workordermem.New()
		orderStore = memOrders
		orderWriter = memOrders
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("connected to redis")
	}

	auditSvc, err := audit.New(auditStore, audit.WithLogger(log))
	if err != nil {
		return err
	}

	notificationOpts := []notification.Option{
		notification.WithLogger(log),
		notification.WithDedupeObserver(m.NotificationsDeduplicated),
	}
	if redisClient != nil {
		notificationOpts = append(notificationOpts, notification.WithUnreadCache(redisClient))
	}
	notificationSvc, err := notification.New(notificationStore, notificationOpts...)
	if err != nil {
		return err
	}

	settingsSvc, err := settings.New(settingsStore,
		settings.WithLogger(log),
		settings.WithAuditRecorder(auditSvc),
	)
	if err != nil {
		return err
	}
	if _, err := settingsSvc.InitializeIfAbsent(ctx, settings.GroupWorkflowRules, settings.DefaultWorkflowRules()); err != nil {
		return err
	}
	if _, err := settingsSvc.InitializeIfAbsent(ctx, settings.GroupEscalation, settings.DefaultEscalation()); err != nil {
		return err
	}
	if err := settingsSvc.Load(ctx); err != nil {
		return err
	}

	orderSvc, err := workorder.New(orderStore, settingsSvc,
		workorder.WithLogger(log),
		workorder.WithAuditRecorder(auditSvc),
	)
	if err != nil {
		return err
	}

	mux := adapters.NewMux()
	mux.Register(id.EntityTypeWorkOrder, orderWriter)

	guardOpts := []workflowservice.Option{
		workflowservice.WithLogger(log),
		workflowservice.WithMetrics(m),
		workflowservice.WithNotifier(notificationSvc),
	}
	var publisher *events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err = events.New(cfg.Kafka.Brokers, cfg.Kafka.TransitionsTopic,
			events.WithLogger(log),
			events.WithFailureObserver(m.EventPublishFailures),
		)
		if err != nil {
			return err
		}
		if err := publisher.EnsureTopic(ctx, 3, 1); err != nil {
			return err
		}
		guardOpts = append(guardOpts, workflowservice.WithEventPublisher(publisher))
		log.Info("transition event feed enabled", "topic", cfg.Kafka.TransitionsTopic)
	}

	guard, err := workflowservice.New(settingsSvc, mux, auditSvc, guardOpts...)
	if err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "shopflow", "shopflow")

	router := chi.NewRouter()
	router.Use(middleware.Latency(m))
	workorderhandler.New(orderSvc, log, jwtService).Register(router)
	workflowhandler.New(guard, log, jwtService).Register(router)
	audithandler.New(auditSvc, log, jwtService).Register(router)
	notificationhandler.New(notificationSvc, log, jwtService).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if publisher != nil {
			if err := publisher.Close(shutdownCtx); err != nil {
				log.Warn("event publisher did not drain cleanly", "error", err)
			}
		}
		return nil
	})

	return g.Wait()
}
