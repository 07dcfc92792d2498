package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/helpinghands/volunteer-dashboard/internal/api"
	"github.com/helpinghands/volunteer-dashboard/internal/api/handler"
	"github.com/helpinghands/volunteer-dashboard/internal/api/metrics"
	"github.com/helpinghands/volunteer-dashboard/internal/core/service"
	mongodb "github.com/helpinghands/volunteer-dashboard/internal/infrastructure/db/mongo"
	"github.com/helpinghands/volunteer-dashboard/internal/infrastructure/db/postgres"
	redisdb "github.com/helpinghands/volunteer-dashboard/internal/infrastructure/db/redis"
	"github.com/helpinghands/volunteer-dashboard/internal/infrastructure/identity"
	"github.com/helpinghands/volunteer-dashboard/internal/infrastructure/queue"
	"github.com/helpinghands/volunteer-dashboard/internal/pkg/config"
	"github.com/helpinghands/volunteer-dashboard/pkg/logger"
	"github.com/helpinghands/volunteer-dashboard/pkg/querycache"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "volunteer-dashboard",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	pg, err := postgres.Connect(ctx, postgres.Config{
		DSN:          cfg.Postgres.DSN,
		MaxOpenConns: cfg.Postgres.MaxOpenConns,
	})
	if err != nil {
		return err
	}
	defer pg.Close()
	if err := postgres.Migrate(ctx, pg); err != nil {
		return err
	}

	mongoClient, mongoDB, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Repositories ---
	credentials := postgres.NewCredentialRepository(pg)
	volunteers := postgres.NewVolunteerRepository(pg)
	roles := postgres.NewRoleRepository(pg)
	statsRepo := postgres.NewStatsRepository(pg)
	hoursRepo := postgres.NewHoursRepository(pg)

	auditRepo := mongodb.NewAuditRepository(mongoDB)
	if err := auditRepo.EnsureIndexes(ctx); err != nil {
		return err
	}

	// --- Identity ---
	provider := identity.NewProvider(credentials, redisdb.NewSessionStore(rdb), identity.Config{
		Secret:        cfg.Session.Secret,
		TTL:           cfg.Session.TTL,
		RefreshWindow: cfg.Session.RefreshWindow,
	}, logger.Component("identity"))

	// --- Query cache ---
	var store querycache.Store
	switch cfg.Cache.Backend {
	case "redis":
		store = redisdb.NewCacheStore(rdb)
	default:
		mem, err := querycache.NewMemoryStore(cfg.Cache.MaxEntries, nil)
		if err != nil {
			return err
		}
		store = mem
	}
	qc := querycache.New(store, metrics.Recorder{}, logger.Component("querycache"))

	// --- Audit ---
	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, auditRepo, metrics.Recorder{}, logger.Component("audit"))
	auditCtx, stopAudit := context.WithCancel(context.Background())
	dispatcher.Start(auditCtx)
	defer func() {
		stopAudit()
		dispatcher.Wait()
	}()

	// --- Services ---
	svcLog := logger.Component("service")
	router := api.NewRouter(cfg.Session, api.Dependencies{
		Identity:   provider,
		Volunteers: volunteers,
		Roles:      roles,
		Accounts:   service.NewAccountService(provider, volunteers, roles, qc, dispatcher, nil, svcLog),
		Stats:      service.NewStatsService(statsRepo, roles, qc, nil, svcLog),
		Hours:      service.NewHoursService(hoursRepo, qc, nil, svcLog),
		RoleAdm:    service.NewRoleService(volunteers, roles, roles, qc, dispatcher, nil, svcLog),
		Audit:      dispatcher,
		AuditLog:   auditRepo,
		QueryCache: qc,
		Health: []handler.HealthCheck{
			handler.PostgresCheck(pg),
			handler.MongoCheck(mongoDB),
			handler.RedisCheck(rdb),
		},
	}, log)

	// --- HTTP server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("cache", cfg.Cache.Backend).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
