// Command propdesk runs the PropDesk API server, its database migrations
// and administrative tasks.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cfhttp "github.com/Strob0t/PropDesk/internal/adapter/http"
	"github.com/Strob0t/PropDesk/internal/adapter/memory"
	cfnats "github.com/Strob0t/PropDesk/internal/adapter/nats"
	"github.com/Strob0t/PropDesk/internal/adapter/natskv"
	cfotel "github.com/Strob0t/PropDesk/internal/adapter/otel"
	"github.com/Strob0t/PropDesk/internal/adapter/postgres"
	"github.com/Strob0t/PropDesk/internal/adapter/ristretto"
	"github.com/Strob0t/PropDesk/internal/adapter/tiered"
	"github.com/Strob0t/PropDesk/internal/config"
	"github.com/Strob0t/PropDesk/internal/domain"
	"github.com/Strob0t/PropDesk/internal/logger"
	"github.com/Strob0t/PropDesk/internal/middleware"
	"github.com/Strob0t/PropDesk/internal/port/cache"
	"github.com/Strob0t/PropDesk/internal/port/database"
	"github.com/Strob0t/PropDesk/internal/port/messagequeue"
	"github.com/Strob0t/PropDesk/internal/resilience"
	"github.com/Strob0t/PropDesk/internal/secrets"
	"github.com/Strob0t/PropDesk/internal/service"
	"github.com/Strob0t/PropDesk/internal/tenancy"
)

const (
	idempotencyTTL      = 24 * time.Hour
	limiterCleanupEvery = 5 * time.Minute
	limiterMaxIdle      = 15 * time.Minute
	shutdownTimeout     = 10 * time.Second
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "migrate":
			return runMigrate(args[1:])
		case "admin":
			return runAdmin(args[1:])
		case "serve":
			args = args[1:]
		}
	}
	return serve(args)
}

func serve(args []string) error {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return fmt.Errorf("flags: %w", err)
	}
	cfg, cfgPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closer := logger.New(cfg.Logging)
	defer closer.Close()
	slog.SetDefault(log)

	log.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Driver,
		"log_level", cfg.Logging.Level,
		"strict_mode", cfg.Tenancy.StrictMode,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---
	shutdownOTel, err := cfotel.Init(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn("otel shutdown failed", "error", err)
		}
	}()
	metrics, err := cfotel.NewMetrics()
	if err != nil {
		log.Warn("otel metrics disabled", "error", err)
		metrics = nil
	}

	// --- Storage ---
	tables, ready, closeStore, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// --- Messaging ---
	queue, err := connectQueue(ctx, cfg)
	if err != nil {
		return err
	}
	var mq messagequeue.Queue
	if queue != nil {
		mq = queue
		defer func() {
			if err := queue.Drain(); err != nil {
				log.Warn("nats drain failed", "error", err)
			}
		}()
	}

	// --- Caches ---
	l1, err := ristretto.NewMB(int(cfg.Cache.L1MaxSizeMB))
	if err != nil {
		return fmt.Errorf("l1 cache: %w", err)
	}
	defer l1.Close()
	var shared cache.Cache = l1
	if queue != nil {
		kv, err := queue.KeyValue(ctx, cfg.NATS.CacheKV, cfg.Cache.L2TTL)
		if err != nil {
			log.Warn("nats kv cache unavailable, using local cache only", "bucket", cfg.NATS.CacheKV, "error", err)
		} else {
			shared = tiered.New(l1, natskv.New(kv), cfg.Tenancy.DirectoryCacheTTL)
		}
	}

	// --- Tenancy ---
	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout,
		resilience.WithName("tenant-directory"),
		resilience.IgnoreErrors(domain.ErrNotFound, context.Canceled),
	)
	dir := tenancy.NewDirectory(tables.Tenants,
		tenancy.WithCache(cache.Prefixed(shared, "dir"), cfg.Tenancy.DirectoryCacheTTL),
		tenancy.WithBreaker(breaker),
		tenancy.WithDirectoryMetrics(metrics),
	)
	resolver := tenancy.NewResolver(dir,
		tenancy.WithResolverLogger(log),
		tenancy.WithReservedSubdomains(cfg.Tenancy.ReservedSubdomains),
		tenancy.WithResolverMetrics(metrics),
	)

	// --- Services ---
	auditSvc := service.NewAuditService(tables.AuditLogs, mq, log)
	validator := tenancy.NewValidator(log, auditSvc)
	deps := &service.Deps{
		Tables:    tables,
		Validator: validator,
		Audit:     auditSvc,
		Gateway: []tenancy.GatewayOption{
			tenancy.WithStrictMode(cfg.Tenancy.StrictMode),
			tenancy.WithGatewayMetrics(metrics),
		},
	}
	vault, err := secrets.NewVault(secrets.SigningKeyLoader(cfg.Auth.JWTSecret, config.MinJWTSecretLen))
	if err != nil {
		return fmt.Errorf("signing keys: %w", err)
	}
	secrets.ReloadOnSignal(ctx, vault, log, syscall.SIGHUP)
	authSvc := service.NewAuthService(tables.Users, &cfg.Auth,
		service.WithKeySource(vault.SigningKeys),
		service.WithHashPool(resilience.NewPool(cfg.Auth.MaxConcurrentHash)),
	)
	tenantSvc := service.NewTenantService(deps, dir, mq)

	if mq != nil {
		cancelInvalidations, err := mq.Subscribe(ctx, messagequeue.SubjectTenantInvalidated, tenantSvc.HandleInvalidation)
		if err != nil {
			return fmt.Errorf("tenant invalidation subscriber: %w", err)
		}
		defer cancelInvalidations()
	}

	// --- HTTP ---
	routes := cfhttp.RouteMiddleware{
		Idempotency: middleware.Idempotency(cache.Prefixed(shared, "http"), idempotencyTTL, log),
	}
	if cfg.Limit.LoginRate > 0 {
		limiter := middleware.NewRateLimiter(cfg.Limit.LoginRate, cfg.Limit.LoginBurst, log)
		limiter.StartCleanup(ctx, limiterCleanupEvery, limiterMaxIdle)
		routes.LoginLimiter = limiter.Handler
	}

	handlers := &cfhttp.Handlers{
		Tenants:    tenantSvc,
		Buildings:  service.NewBuildingService(deps),
		Properties: service.NewPropertyService(deps),
		Contracts:  service.NewContractService(deps),
		Users:      service.NewUserService(deps, authSvc),
		Auth:       authSvc,
		Audit:      auditSvc,
		Ready:      ready,
		BodyLimit:  cfg.Server.BodyLimit,
	}
	router := cfhttp.NewRouter(handlers, cfhttp.Pipeline{
		Tokens:       authSvc,
		Resolver:     resolver,
		Validator:    validator,
		TenantHeader: cfg.Tenancy.HeaderName,
		CORSOrigin:   cfg.Server.CORSOrigin,
		Log:          log,
		Outer:        cfotel.HTTPMiddleware(cfg.OTel.ServiceName),
		Routes:       routes,
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStorage returns the configured tables, a readiness probe (nil for
// memory) and a cleanup function.
func openStorage(ctx context.Context, cfg *config.Config) (database.Tables, func(context.Context) error, func(), error) {
	if cfg.Storage.Driver == "memory" {
		slog.Warn("using in-memory storage; data is lost on exit")
		return memory.NewTables(), nil, func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return database.Tables{}, nil, nil, fmt.Errorf("postgres: %w", err)
	}
	slog.Info("postgres connected")

	if cfg.Postgres.AutoMigrate {
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			pool.Close()
			return database.Tables{}, nil, nil, fmt.Errorf("migrations: %w", err)
		}
		slog.Info("migrations applied")
	}
	return postgres.NewTables(pool), pool.Ping, pool.Close, nil
}

// connectQueue connects to NATS when a URL is configured. A failed
// connection is fatal only when nats.required is set.
func connectQueue(ctx context.Context, cfg *config.Config) (*cfnats.Queue, error) {
	if cfg.NATS.URL == "" {
		slog.Info("nats not configured; audit events are not published")
		return nil, nil
	}
	q, err := cfnats.Connect(ctx, cfg.NATS.URL, cfg.NATS.Stream)
	if err != nil {
		if cfg.NATS.Required {
			return nil, fmt.Errorf("nats: %w", err)
		}
		slog.Warn("nats unavailable; continuing without messaging", "error", err)
		return nil, nil
	}
	return q, nil
}
