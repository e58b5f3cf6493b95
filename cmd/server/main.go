package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	analyticsstore "github.com/UltraQuamfy/contentify/internal/analytics/store"
	"github.com/UltraQuamfy/contentify/internal/cheqd"
	"github.com/UltraQuamfy/contentify/internal/credential/handler"
	"github.com/UltraQuamfy/contentify/internal/credential/service"
	credstore "github.com/UltraQuamfy/contentify/internal/credential/store"
	"github.com/UltraQuamfy/contentify/internal/identity"
	"github.com/UltraQuamfy/contentify/internal/outbox"
	outboxstore "github.com/UltraQuamfy/contentify/internal/outbox/store"
	"github.com/UltraQuamfy/contentify/internal/outbox/worker"
	"github.com/UltraQuamfy/contentify/internal/platform/config"
	"github.com/UltraQuamfy/contentify/internal/platform/database"
	"github.com/UltraQuamfy/contentify/internal/platform/health"
	"github.com/UltraQuamfy/contentify/internal/platform/httpserver"
	"github.com/UltraQuamfy/contentify/internal/platform/kafka/producer"
	"github.com/UltraQuamfy/contentify/internal/platform/logger"
	"github.com/UltraQuamfy/contentify/internal/platform/metrics"
	"github.com/UltraQuamfy/contentify/internal/platform/middleware"
	"github.com/UltraQuamfy/contentify/internal/platform/redis"
	providerstore "github.com/UltraQuamfy/contentify/internal/provider/store"
	"github.com/UltraQuamfy/contentify/internal/statuslist"
	userstore "github.com/UltraQuamfy/contentify/internal/user/store"
	"github.com/UltraQuamfy/contentify/migrations"
	"github.com/UltraQuamfy/contentify/pkg/platform/tx"
)

// main wires configuration, storage, the hosted cheqd clients, and the HTTP
// surface, then runs until interrupted. Business logic lives in the internal
// service packages; everything here is construction and lifecycle.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	log.Info("initializing contentify",
		"addr", cfg.HTTP.Addr,
		"environment", cfg.Environment,
		"network", cfg.Cheqd.Network,
	)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	// Storage. Without DATABASE_URL the process runs on in-memory stores so
	// local development works with nothing but a cheqd API key; the health
	// endpoint reports the database as disconnected in that mode.
	pool, err := database.New(cfg.Database)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	var (
		users       service.UserStore
		providers   service.ProviderStore
		credentials service.CredentialStore
		analytics   service.AnalyticsStore
		outboxStore outbox.Store
		txRunner    service.TxRunner
	)
	if pool != nil {
		if err := pool.Migrate(startupCtx, migrations.FS); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}

		providerPg := providerstore.NewPostgres(pool.DB())
		if err := providerstore.Seed(startupCtx, providerPg); err != nil {
			log.Error("provider seeding failed", "error", err)
			os.Exit(1)
		}

		users = userstore.NewPostgres(pool.DB())
		providers = providerPg
		credentials = credstore.NewPostgres(pool.DB())
		analytics = analyticsstore.NewPostgres(pool.DB())
		outboxStore = outboxstore.NewPostgres(pool.DB())
		txRunner = tx.NewRunner(pool.DB())
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")

		userMem := userstore.NewInMemory()
		providerMem := providerstore.NewInMemory()
		if err := providerstore.Seed(startupCtx, providerMem); err != nil {
			log.Error("provider seeding failed", "error", err)
			os.Exit(1)
		}

		users = userMem
		providers = providerMem
		credentials = credstore.NewInMemory(credstore.WithJoins(providerMem.FindByID, userMem.FindByID))
		analytics = analyticsstore.NewInMemory()
		outboxStore = outboxstore.NewInMemory()
	}

	m := metrics.New()

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	// Analytics events leave through the outbox worker. Without brokers the
	// noop producer drains the outbox into the void, which keeps the issuance
	// transaction shape identical across environments.
	var (
		publisher     worker.Publisher
		publisherStop func()
	)
	if cfg.Kafka.Brokers != "" {
		kafkaProducer, err := producer.New(cfg.Kafka, log)
		if err != nil {
			log.Error("kafka producer creation failed", "error", err)
			os.Exit(1)
		}
		publisher = kafkaProducer
		publisherStop = func() { _ = kafkaProducer.Close() }
	} else {
		log.Warn("KAFKA_BROKERS not set, analytics events are discarded after outbox processing")
		publisher = producer.NewNoopProducer(log)
		publisherStop = func() {}
	}

	callerOpts := []cheqd.CallerOption{
		cheqd.WithMetrics(m),
		cheqd.WithLogger(log),
	}
	identityClient := identity.NewHTTPClient(cfg.Cheqd, callerOpts)
	statusListClient := statuslist.NewHTTPClient(cfg.Cheqd, callerOpts)

	serviceOpts := []service.Option{
		service.WithMetrics(m),
		service.WithPublicBaseURL(cfg.HTTP.PublicBaseURL),
		service.WithNetwork(cfg.Cheqd.Network),
		service.WithInitialCredits(cfg.Credits.InitialCredits),
	}
	if txRunner != nil {
		serviceOpts = append(serviceOpts, service.WithTxRunner(txRunner))
	}
	if redisClient != nil {
		serviceOpts = append(serviceOpts,
			service.WithCache(credstore.NewRedisCache(redisClient.Client, cfg.Redis.CacheTTL, m)))
	}

	svc := service.NewService(service.Deps{
		Users:       users,
		Providers:   providers,
		Credentials: credentials,
		Analytics:   analytics,
		Outbox:      outboxStore,
		Identity:    identityClient,
		StatusLists: statusListClient,
	}, log, serviceOpts...)

	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("database", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Health(ctx)
	})
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Health(ctx)
		})
	}

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.ClientMetadata)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Latency(m))
	router.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	router.Use(middleware.ContentTypeJSON)

	healthHandler.Register(router)
	handler.New(svc, log).Register(router)
	router.Handle("/metrics", promhttp.Handler())

	outboxWorker := worker.New(outboxStore, publisher,
		worker.WithTopic(cfg.Kafka.AnalyticsTopic),
		worker.WithMetrics(m),
		worker.WithLogger(log),
	)
	outboxWorker.Start()

	srv := httpserver.New(cfg.HTTP.Addr, router)

	log.Info("starting http server", "addr", cfg.HTTP.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if err := outboxWorker.Stop(shutdownCtx); err != nil {
		log.Error("outbox worker shutdown failed", "error", err)
	}
	publisherStop()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := pool.Close(); err != nil {
		log.Error("database close failed", "error", err)
	}

	log.Info("server stopped")
}
