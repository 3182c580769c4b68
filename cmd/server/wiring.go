package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"ekaa/internal/audit"
	"ekaa/internal/auth"
	"ekaa/internal/auth/service"
	"ekaa/internal/auth/session"
	"ekaa/internal/auth/store/lockout"
	"ekaa/internal/auth/store/revocation"
	"ekaa/internal/auth/verifier"
	httpapi "ekaa/internal/http"
	"ekaa/internal/platform/config"
	"ekaa/internal/platform/database"
	"ekaa/internal/platform/metrics"
	"ekaa/internal/platform/redis"
	"ekaa/internal/registration"
	regservice "ekaa/internal/registration/service"
	"ekaa/internal/registration/store"
	"ekaa/pkg/platform/circuit"
	"ekaa/pkg/secrets"
)

const (
	kafkaPartitions  = 3
	kafkaReplication = 1
	auditQueueSize   = 1024
)

type application struct {
	router    http.Handler
	opsRouter http.Handler
	workers   []func(context.Context) error
	closers   []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// build wires every dependency. On error, resources opened so far are released.
func build(ctx context.Context, cfg config.Server, log *slog.Logger, reg *prometheus.Registry) (_ *application, err error) {
	app := &application{}
	defer func() {
		if err != nil {
			app.close()
		}
	}()

	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewWithRegisterer(reg)
	checks := map[string]httpapi.HealthCheck{}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if db != nil {
		app.closers = append(app.closers, func() { _ = db.Close() })
		checks["database"] = db.PingContext
	}

	regStore, err := registrationStore(ctx, cfg, db)
	if err != nil {
		return nil, err
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		app.closers = append(app.closers, func() { _ = rdb.Close() })
		checks["redis"] = rdb.Health
	}

	publisher, err := auditPublisher(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, publisher.closers...)
	app.workers = append(app.workers, publisher.workers...)

	v, err := adminVerifier(cfg.Admin, log)
	if err != nil {
		return nil, err
	}
	signingKey := cfg.Session.SigningKey
	if signingKey == "" {
		if signingKey, err = secrets.Generate(); err != nil {
			return nil, err
		}
		log.Warn("SESSION_SIGNING_KEY not set; using an ephemeral key, sessions end on restart")
	}
	sessions := session.NewManager(signingKey, cfg.Session.TTL, cfg.Session.CookieSecure)

	revocations, lockouts, err := sessionStores(ctx, cfg, db, rdb, m)
	if err != nil {
		return nil, err
	}

	authService := auth.NewService(v, sessions, revocations, lockouts,
		service.WithMaxFailures(cfg.Lockout.MaxFailures),
		service.WithMaxAccountFailures(cfg.Lockout.MaxAccountFailures),
		service.WithLogger(log),
		service.WithAuditPublisher(publisher.Publisher),
		service.WithMetrics(m),
	)
	registrationService := registration.NewService(regStore,
		regservice.WithLogger(log),
		regservice.WithAuditPublisher(publisher.Publisher),
		regservice.WithMetrics(m),
	)

	app.router = httpapi.NewRouter(httpapi.Deps{
		Logger:         log,
		Metrics:        m,
		Authenticator:  authService,
		TrustedProxies: cfg.TrustedProxies,
		Handlers: []httpapi.RouteRegistrar{
			registration.NewHandler(registrationService, log),
			auth.NewHandler(authService, sessions, log),
		},
	})
	app.opsRouter = httpapi.NewOpsRouter(reg, checks)
	return app, nil
}

func registrationStore(ctx context.Context, cfg config.Server, db *sql.DB) (regservice.Store, error) {
	if db == nil {
		return store.NewInMemory(), nil
	}
	dialect := store.DialectSQLite
	if cfg.Store == config.StorePostgres {
		dialect = store.DialectPostgres
	}
	st := store.NewSQL(db, dialect)
	if err := st.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

// sessionStores prefers Redis, then the SQL database, then process memory.
func sessionStores(ctx context.Context, cfg config.Server, db *sql.DB, rdb *redis.Client, m *metrics.Metrics) (service.RevocationList, service.LockoutStore, error) {
	if rdb != nil {
		trl := revocation.NewRedisTRL(rdb.Client, revocation.WithMetrics(m))
		return trl, lockout.NewRedis(rdb.Client, cfg.Lockout.Window), nil
	}
	lockouts := lockout.NewInMemory(cfg.Lockout.Window)
	if db != nil {
		trl := revocation.NewSQLTRL(db)
		if err := trl.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		return trl, lockouts, nil
	}
	return revocation.NewInMemoryTRL(), lockouts, nil
}

func adminVerifier(cfg config.AdminConfig, log *slog.Logger) (*verifier.Static, error) {
	hash := cfg.PasswordHash
	if hash == "" {
		log.Warn("ADMIN_PASSWORD_HASH not set; hashing ADMIN_PASSWORD at startup, do not use in production")
		var err error
		if hash, err = secrets.Hash(cfg.Password); err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
	}
	return verifier.NewStatic(cfg.Username, hash)
}

type publisherBundle struct {
	*audit.Publisher
	workers []func(context.Context) error
	closers []func()
}

func auditPublisher(ctx context.Context, cfg config.Server, log *slog.Logger) (*publisherBundle, error) {
	sinks := []audit.Sink{audit.NewLogSink(log)}
	bundle := &publisherBundle{}
	if cfg.Kafka.Enabled() {
		kafka, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, err
		}
		if err := kafka.EnsureTopic(ctx, kafkaPartitions, kafkaReplication); err != nil {
			kafka.Close()
			return nil, err
		}
		async := audit.NewAsyncSink(audit.NewGuardedSink(kafka, circuit.New("kafka"), log), auditQueueSize, log)
		sinks = append(sinks, async)
		bundle.workers = append(bundle.workers, async.Run)
		bundle.closers = append(bundle.closers, kafka.Close)
		log.Info("publishing events to kafka", "topic", cfg.Kafka.Topic)
	}
	bundle.Publisher = audit.NewPublisher(sinks...)
	return bundle, nil
}
