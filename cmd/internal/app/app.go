// Package app wires the auth server runtime: config, logging, storage
// backends, notification delivery, tracing and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/rasedprogrammer/national-recruiting-agency/cmd/identity"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/auth"
	authapi "github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/auth/api"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/auth/session"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/auth/tokens"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/auth/verification"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/dbx"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/migrations"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/notify"
)

// App owns the HTTP handler and every long-lived resource behind it.
type App struct {
	cfg Config
	log Logger

	pool     *pgxpool.Pool
	rdb      *redis.Client
	notifier notify.Publisher
	tracer   func(context.Context) error

	handler http.Handler
}

// New constructs a fully wired App. Resources opened before a failure are released.
func New(ctx context.Context, cfg Config, log Logger) (_ *App, err error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogColor)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	if a.tracer, err = InitTracer(ctx, cfg); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL != "" {
		if cfg.DBMigrate {
			if err := migrations.Up(ctx, cfg.DatabaseURL); err != nil {
				return nil, err
			}
			log.Info("db.migrations.applied")
		}
		if a.pool, err = NewDBPool(ctx, cfg); err != nil {
			return nil, err
		}
		log.Info("db.enabled.postgres")
	}
	if cfg.RedisAddr != "" {
		if a.rdb, err = NewRedisClient(ctx, cfg); err != nil {
			return nil, err
		}
		log.Info("redis.enabled", "addr", cfg.RedisAddr)
	}

	hasher, err := identity.NewHasher(cfg.Password)
	if err != nil {
		return nil, err
	}
	users, err := a.userStore(hasher)
	if err != nil {
		return nil, err
	}
	sessions, err := a.sessionStore()
	if err != nil {
		return nil, err
	}
	codes, err := a.codeStore()
	if err != nil {
		return nil, err
	}
	codeHash, err := codeHasher(cfg)
	if err != nil {
		return nil, err
	}
	if a.notifier, err = a.newNotifier(); err != nil {
		return nil, err
	}

	tsvc, err := tokens.New(cfg.Tokens)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, err := auth.NewService(auth.Deps{
		Users:             users,
		Sessions:          sessions,
		Tokens:            tsvc,
		Codes:             verification.NewIssuer(codes, codeHash),
		Notifier:          a.notifier,
		RotationThreshold: cfg.Session.RotationThreshold,
		Logger:            log,
		Metrics:           auth.NewMetrics(reg),
	})
	if err != nil {
		return nil, err
	}

	api, err := authapi.NewHandler(log, cfg.API, svc, session.NewManager(sessions, users), tsvc)
	if err != nil {
		return nil, err
	}

	if len(cfg.CORSAllowedOrigins) == 0 {
		log.Warn("cors.no_origins", "hint", "cross-origin browser requests will get 403; set NRA_CORS_ALLOWED_ORIGINS")
	}

	a.handler = a.newRouter(api, reg)
	return a, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

func (a *App) userStore(h *identity.Hasher) (identity.Store, error) {
	if a.pool == nil {
		a.log.Warn("identity.store.memory")
		return identity.NewMemoryStore(h), nil
	}
	return identity.NewPostgresStore(a.pool, h)
}

func (a *App) sessionStore() (session.Store, error) {
	backend := a.cfg.sessionBackend()
	a.log.Info("session.store", "backend", backend)

	switch backend {
	case BackendPostgres:
		return session.NewPostgresStore(a.pool, a.cfg.Session, dbx.DefaultSchema)
	case BackendRedis:
		return session.NewRedisStore(a.rdb, a.cfg.Session, session.WithRedisPrefix(a.cfg.RedisKeyPrefix))
	default:
		return session.NewMemoryStore(a.cfg.Session), nil
	}
}

func (a *App) codeStore() (verification.Store, error) {
	switch {
	case a.pool != nil:
		return verification.NewPostgresStore(a.pool, dbx.DefaultSchema)
	case a.rdb != nil:
		return verification.NewRedisStore(a.rdb, verification.WithRedisPrefix(a.cfg.RedisKeyPrefix))
	default:
		return verification.NewMemoryStore(), nil
	}
}

func (a *App) newNotifier() (notify.Publisher, error) {
	if len(a.cfg.KafkaBrokers) == 0 {
		return notify.Noop{Logger: a.log}, nil
	}
	kcfg := notify.DefaultKafkaConfig(a.cfg.KafkaBrokers)
	if a.cfg.KafkaVerificationTopic != "" {
		kcfg.Topic = a.cfg.KafkaVerificationTopic
	}
	kp, err := notify.NewKafkaPublisher(kcfg, a.log)
	if err != nil {
		return nil, err
	}
	a.log.Info("notify.kafka.enabled", "topic", kcfg.Topic, "brokers", a.cfg.KafkaBrokers)
	return kp, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled or the server fails.
// Resources are released before it returns.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start",
		"addr", a.cfg.HTTPAddr,
		"base_path", a.cfg.API.BasePath,
		"session_backend", a.cfg.sessionBackend(),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case runErr = <-errCh:
		a.log.Error("server.fail", "err", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), nonZeroDuration(a.cfg.ShutdownTimeout, 10*time.Second))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		runErr = errors.Join(runErr, err)
	}
	if err := a.Close(shutdownCtx); err != nil {
		a.log.Error("app.close.fail", "err", err)
	}

	a.log.Info("server.stopped")
	return runErr
}

// Close releases the notifier, Redis client, database pool and tracer. It is safe to call more than once.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("notifier: %w", err))
		}
		a.notifier = nil
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
		a.rdb = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	if a.tracer != nil {
		if err := a.tracer(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer: %w", err))
		}
		a.tracer = nil
	}
	return errors.Join(errs...)
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
