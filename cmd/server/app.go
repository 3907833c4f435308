package main

import (
	"context"
	"log/slog"
	"net/http"

	"customerapi/internal/customer"
	customermetrics "customerapi/internal/customer/metrics"
	"customerapi/internal/customer/service"
	"customerapi/internal/customer/store"
	"customerapi/internal/platform/config"
	"customerapi/internal/platform/kafka"
	"customerapi/internal/platform/metrics"
	"customerapi/internal/platform/postgres"
	"customerapi/internal/platform/redis"
	httptransport "customerapi/internal/transport/http"
	"customerapi/pkg/platform/audit"
	"customerapi/pkg/platform/audit/publishers/compliance"
	auditmemory "customerapi/pkg/platform/audit/store/memory"
	auditpostgres "customerapi/pkg/platform/audit/store/postgres"
	"customerapi/pkg/platform/audit/worker"
)

// auditOutbox is an audit store the relay can drain.
type auditOutbox interface {
	audit.Store
	worker.Source
}

type app struct {
	router       http.Handler
	relay        *worker.Worker
	storeKind    string
	sinkKind     string
	cacheEnabled bool
	closers      []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp wires stores, services, handlers and the audit relay from cfg.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrate bool) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	var (
		customers service.Store
		storeTx   service.StoreTx
		outbox    auditOutbox
		ready     = map[string]httptransport.HealthChecker{}
	)

	if cfg.Database.Enabled() {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		if migrate {
			if err := postgres.Migrate(ctx, db.SQL); err != nil {
				return nil, err
			}
		}
		customers = store.NewPostgres(db.SQL)
		storeTx = store.NewPostgresTx(db.SQL)
		outbox = auditpostgres.New(db.SQL)
		ready["postgres"] = db
		a.storeKind = "postgres"
	} else {
		customers = store.NewInMemory()
		storeTx = store.NewInMemoryTx()
		outbox = auditmemory.NewInMemoryStore()
		a.storeKind = "memory"
	}

	customerMetrics := customermetrics.New()

	if cfg.Redis.URL != "" {
		rc, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rc.Close() })
		customers = store.NewCachedStore(customers, rc.Client, rc.CacheTTL,
			store.WithCacheLogger(logger),
			store.WithCacheMetrics(customerMetrics),
		)
		ready["redis"] = rc
		a.cacheEnabled = true
	}

	var sink worker.Sink = worker.NewLogSink(logger)
	a.sinkKind = "log"
	if brokers := cfg.Kafka.BrokerList(); len(brokers) > 0 {
		producer, err := kafka.NewProducer(brokers, cfg.Kafka.AuditTopic, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, producer.Close)
		if err := producer.EnsureTopic(ctx, 1, 1); err != nil {
			logger.WarnContext(ctx, "could not ensure audit topic", "error", err)
		}
		sink = kafka.NewAuditSink(producer)
		ready["kafka"] = httptransport.HealthCheckFunc(producer.Ping)
		a.sinkKind = "kafka"
	}

	publisher := compliance.New(outbox,
		compliance.WithLogger(logger),
		compliance.WithMetrics(compliance.NewMetrics()),
	)
	a.relay = worker.NewWorker(outbox, sink,
		worker.WithLogger(logger),
		worker.WithInterval(cfg.Audit.RelayInterval),
		worker.WithBatchSize(cfg.Audit.RelayBatchSize),
	)

	svc := customer.NewService(customers,
		service.WithLogger(logger),
		service.WithStoreTx(storeTx),
		service.WithAuditPublisher(publisher),
		service.WithMetrics(customerMetrics),
	)
	h := customer.NewHandler(svc, logger)

	routerCfg := httptransport.RouterConfig{
		Logger:         logger,
		Metrics:        metrics.New(),
		RequestTimeout: cfg.Server.RequestTimeout,
		AdminToken:     cfg.AdminToken,
		Handlers:       []httptransport.RouteRegistrar{h},
		Ready:          ready,
	}
	if cfg.AdminToken != "" {
		routerCfg.Admin = []httptransport.AdminRouteRegistrar{h}
	} else {
		logger.InfoContext(ctx, "ADMIN_API_TOKEN not set; admin routes disabled")
	}
	a.router = httptransport.NewRouter(routerCfg)
	return a, nil
}
