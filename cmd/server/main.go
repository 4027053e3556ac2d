package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	assignmentHandler "nagrik/internal/assignment/handler"
	assignmentMetrics "nagrik/internal/assignment/metrics"
	assignmentService "nagrik/internal/assignment/service"
	assignmentStore "nagrik/internal/assignment/store/assignment"
	campaignHandler "nagrik/internal/campaign/handler"
	campaignService "nagrik/internal/campaign/service"
	campaignStore "nagrik/internal/campaign/store/campaign"
	issueHandler "nagrik/internal/issue/handler"
	issueMetrics "nagrik/internal/issue/metrics"
	issueService "nagrik/internal/issue/service"
	issueStore "nagrik/internal/issue/store/issue"
	notificationHandler "nagrik/internal/notification/handler"
	notificationService "nagrik/internal/notification/service"
	notificationStore "nagrik/internal/notification/store/notification"
	"nagrik/internal/platform/config"
	"nagrik/internal/platform/events"
	"nagrik/internal/platform/httpserver"
	"nagrik/internal/platform/logger"
	platformMetrics "nagrik/internal/platform/metrics"
	"nagrik/internal/platform/middleware"
	"nagrik/internal/platform/postgres"
	platformredis "nagrik/internal/platform/redis"
	pointsHandler "nagrik/internal/points/handler"
	pointsMetrics "nagrik/internal/points/metrics"
	pointsService "nagrik/internal/points/service"
	ledgerStore "nagrik/internal/points/store/ledger"
	verificationHandler "nagrik/internal/verification/handler"
	verificationMetrics "nagrik/internal/verification/metrics"
	"nagrik/internal/verification/oracle"
	verificationService "nagrik/internal/verification/service"
	verificationStore "nagrik/internal/verification/store/verification"
)

// main wires stores, services, and handlers, then runs the HTTP server until
// a shutdown signal. Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	// Stores: Postgres when configured, in-memory otherwise.
	var (
		issues        issueStore.Store        = issueStore.NewMemory()
		verifications verificationStore.Store = verificationStore.NewMemory()
		notifications notificationStore.Store = notificationStore.NewMemory()
		ledger        ledgerStore.Store       = ledgerStore.NewMemory()
		assignments   assignmentStore.Store   = assignmentStore.NewMemory()
		campaigns     campaignStore.Store     = campaignStore.NewMemory()
	)
	if cfg.PostgresURL != "" {
		db, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.InitSchema(ctx, db); err != nil {
			log.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
		issues = issueStore.NewPostgres(db)
		verifications = verificationStore.NewPostgres(db)
		notifications = notificationStore.NewPostgres(db)
		ledger = ledgerStore.NewPostgres(db)
		assignments = assignmentStore.NewPostgres(db)
		campaigns = campaignStore.NewPostgres(db)
	}

	var redisClient *platformredis.Client
	if cfg.RedisURL != "" {
		client, err := platformredis.New(cfg.Redis())
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		redisClient = client
	}

	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		publisher = kafka
	}

	notifier, err := notificationService.New(notifications,
		notificationService.WithLogger(log),
	)
	if err != nil {
		log.Error("failed to build notification service", "error", err)
		os.Exit(1)
	}

	points, err := pointsService.New(ledger,
		pointsService.WithLogger(log),
		pointsService.WithMetrics(pointsMetrics.New()),
		pointsService.WithEventPublisher(publisher),
	)
	if err != nil {
		log.Error("failed to build points service", "error", err)
		os.Exit(1)
	}

	lifecycle, err := issueService.New(issues, notifier, points, assignments,
		issueService.WithLogger(log),
		issueService.WithMetrics(issueMetrics.New()),
		issueService.WithEventPublisher(publisher),
	)
	if err != nil {
		log.Error("failed to build issue service", "error", err)
		os.Exit(1)
	}

	var visionOracle oracle.Oracle = oracle.Disabled{}
	if cfg.OracleURL != "" {
		client, err := oracle.NewVisionClient(cfg.OracleURL, cfg.OracleAPIKey)
		if err != nil {
			log.Error("failed to build oracle client", "error", err)
			os.Exit(1)
		}
		visionOracle = client
	} else {
		log.Warn("oracle not configured, verification requests will be unavailable")
	}

	verifier, err := verificationService.New(verifications, lifecycle, visionOracle, lifecycle, points, notifier,
		verificationService.WithLogger(log),
		verificationService.WithMetrics(verificationMetrics.New()),
		verificationService.WithEventPublisher(publisher),
	)
	if err != nil {
		log.Error("failed to build verification service", "error", err)
		os.Exit(1)
	}

	assigner, err := assignmentService.New(assignments, lifecycle, notifier,
		assignmentService.WithLogger(log),
		assignmentService.WithMetrics(assignmentMetrics.New()),
		assignmentService.WithEventPublisher(publisher),
	)
	if err != nil {
		log.Error("failed to build assignment service", "error", err)
		os.Exit(1)
	}

	campaigner, err := campaignService.New(campaigns, points,
		campaignService.WithLogger(log),
		campaignService.WithEventPublisher(publisher),
	)
	if err != nil {
		log.Error("failed to build campaign service", "error", err)
		os.Exit(1)
	}

	jwtValidator := middleware.NewHMACValidator(cfg.JWTSigningKey)

	var limiterClient *redis.Client
	if redisClient != nil {
		limiterClient = redisClient.Client
	}

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	router.Use(platformMetrics.Latency(platformMetrics.New()))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.Handler())

	issueHandler.New(lifecycle, log, jwtValidator, limiterClient, cfg.ReportLimitPerDay).Register(router)
	verificationHandler.New(verifier, log, jwtValidator).Register(router)
	assignmentHandler.New(assigner, log, jwtValidator).Register(router)
	notificationHandler.New(notifier, log, jwtValidator).Register(router)
	pointsHandler.New(points, log, jwtValidator).Register(router)
	campaignHandler.New(campaigner, log, jwtValidator).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting nagrik server", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
