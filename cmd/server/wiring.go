package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"custodian/internal/audit"
	"custodian/internal/audit/outbox"
	outboxmetrics "custodian/internal/audit/outbox/metrics"
	outboxpg "custodian/internal/audit/outbox/postgres"
	"custodian/internal/audit/outbox/worker"
	"custodian/internal/lifecycle/executor"
	lifecyclehandler "custodian/internal/lifecycle/handler"
	"custodian/internal/lifecycle/metrics"
	"custodian/internal/lifecycle/models"
	"custodian/internal/lifecycle/policy"
	"custodian/internal/lifecycle/service"
	"custodian/internal/lifecycle/settings"
	"custodian/internal/lifecycle/store/account"
	"custodian/internal/lifecycle/workers/scheduler"
	"custodian/internal/notify"
	"custodian/internal/platform/config"
	"custodian/internal/platform/database"
	"custodian/internal/platform/health"
	"custodian/internal/platform/kafka/producer"
	"custodian/internal/platform/redis"
	"custodian/internal/seeder"
	"custodian/pkg/platform/circuit"
	"custodian/pkg/platform/middleware/admin"
	request "custodian/pkg/platform/middleware/request"
)

type accountStore interface {
	service.AccountStore
	executor.AccountStore
}

type application struct {
	router    http.Handler
	scheduler *scheduler.Scheduler
	relay     *worker.Worker
	closers   []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// build wires every dependency. Each backing service is optional: without
// DATABASE_URL, REDIS_URL or KAFKA_BROKERS the in-memory equivalent is used
// or the feature is switched off.
func build(cfg config.Config, log *slog.Logger) (*application, error) {
	app := &application{}
	reg := prometheus.DefaultRegisterer
	checks := health.New(cfg.Server.Environment)

	pool, err := database.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	var (
		accounts accountStore
		entries  outbox.Store
	)
	if pool != nil {
		app.closers = append(app.closers, func() { _ = pool.Close() })
		checks.RegisterCheck("database", pool.Health)
		accounts = account.NewPostgres(pool.DB())
		entries = outboxpg.New(pool.DB())
		log.Info("using postgres account store")
	} else {
		memOutbox := outbox.NewInMemoryStore()
		memAccounts := account.NewInMemory(memOutbox)
		accounts = memAccounts
		entries = memOutbox
		log.Warn("DATABASE_URL not set, using in-memory account store")
		if cfg.Server.SeedDemoData {
			if _, err := seeder.New(memAccounts, log).SeedAll(context.Background()); err != nil {
				return nil, fmt.Errorf("seed demo data: %w", err)
			}
		}
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	var modeStore settings.Store = settings.NewInMemory()
	if redisClient != nil {
		app.closers = append(app.closers, func() { _ = redisClient.Close() })
		checks.RegisterCheck("redis", redisClient.Health)
		reg.MustRegister(redisClient.PoolCollectors()...)
		modeStore = settings.NewRedisStore(redisClient.Client, cfg.Redis.ModeKey)
	} else {
		log.Warn("REDIS_URL not set, automation mode resets to the initial mode on restart")
	}

	publisher := audit.NewPublisher(audit.NewOutboxStore(entries),
		audit.WithAsyncBuffer(256),
		audit.WithPublisherLogger(log),
	)
	app.closers = append(app.closers, publisher.Close)

	if cfg.Kafka.Brokers != "" {
		prod, err := producer.New(cfg.Kafka, log)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("create kafka producer: %w", err)
		}
		app.closers = append(app.closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = prod.Close(ctx)
		})
		checks.RegisterCheck("kafka", prod.Health)
		app.relay = worker.New(entries, prod,
			worker.WithTopic(cfg.Kafka.Topic),
			worker.WithBatchSize(cfg.Outbox.BatchSize),
			worker.WithPollInterval(cfg.Outbox.PollInterval),
			worker.WithRetention(cfg.Outbox.Retention),
			worker.WithMetrics(outboxmetrics.New(reg)),
			worker.WithLogger(log),
		)
	} else {
		log.Warn("KAFKA_BROKERS not set, lifecycle events stay in the outbox")
	}

	lifecycleMetrics := metrics.New(reg)
	rules := policy.Rules{
		DeletionGrace: cfg.Lifecycle.DeletionGrace,
		AccuracyGrace: cfg.Lifecycle.AccuracyGrace,
	}
	exec := executor.New(accounts, newNotifier(cfg, log), publisher,
		executor.WithLogger(log),
		executor.WithMetrics(lifecycleMetrics),
		executor.WithRules(rules),
		executor.WithAccuracyThreshold(cfg.Lifecycle.AccuracyThreshold),
		executor.WithPortalURL(cfg.Lifecycle.PortalURL),
	)
	svc := service.New(accounts, exec, publisher,
		service.WithLogger(log),
		service.WithMetrics(lifecycleMetrics),
		service.WithRules(rules),
		service.WithAccuracyThreshold(cfg.Lifecycle.AccuracyThreshold),
	)
	modes := settings.New(modeStore, publisher,
		settings.WithInitialMode(models.NormalizeMode(cfg.Lifecycle.InitialMode)),
		settings.WithLogger(log),
		settings.WithMetrics(lifecycleMetrics),
	)

	app.scheduler, err = scheduler.New(cfg.Lifecycle.Schedule, modes, svc,
		scheduler.WithRunTimeout(cfg.Lifecycle.RunTimeout),
		scheduler.WithLogger(log),
	)
	if err != nil {
		app.close()
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(request.Logger(log))
	checks.Register(r)
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		r.Use(request.LatencyMiddleware(request.NewMetrics(), routePattern))
		r.Use(admin.RequireAdminToken(cfg.Server.AdminToken, log))
		lifecyclehandler.New(svc, modes, log).Register(r)
	})
	app.router = r

	if cfg.Server.AdminToken == "" {
		log.Warn("ADMIN_API_TOKEN not set, admin endpoints reject every request")
	}
	return app, nil
}

// newNotifier picks SMTP when configured and the logging notifier otherwise,
// mirroring to Slack when a bot token is present.
func newNotifier(cfg config.Config, log *slog.Logger) notify.Notifier {
	var primary notify.Notifier
	if cfg.SMTP.Host != "" {
		primary = notify.NewSMTP(cfg.SMTP,
			notify.WithBreaker(circuit.New("smtp")),
			notify.WithSMTPLogger(log),
		)
	} else {
		log.Warn("SMTP_HOST not set, notifications are logged instead of sent")
		primary = notify.NewLog(log)
	}
	if cfg.Slack.BotToken == "" {
		return primary
	}
	return notify.NewFanout(primary, log, notify.NewSlack(cfg.Slack.BotToken, cfg.Slack.ChannelID, log))
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
