package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	audithandler "scrollvault/internal/audit/handler"
	jwttoken "scrollvault/internal/jwt_token"
	licensehandler "scrollvault/internal/license/handler"
	licenseservice "scrollvault/internal/license/service"
	"scrollvault/internal/mesh"
	meshhandler "scrollvault/internal/mesh/handler"
	meshstore "scrollvault/internal/mesh/store"
	"scrollvault/internal/platform/config"
	"scrollvault/internal/platform/httpserver"
	"scrollvault/internal/platform/logger"
	"scrollvault/internal/platform/metrics"
	platformredis "scrollvault/internal/platform/redis"
	scrollhandler "scrollvault/internal/scroll/handler"
	scrollservice "scrollvault/internal/scroll/service"
	scrollstore "scrollvault/internal/scroll/store"
	"scrollvault/internal/signing"
	httptransport "scrollvault/internal/transport/http"
	"scrollvault/pkg/platform/audit"
	"scrollvault/pkg/platform/audit/publisher"
	kafkasink "scrollvault/pkg/platform/audit/publishers/kafka"
	auditmemory "scrollvault/pkg/platform/audit/store/memory"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "scrollvault: %v\n", err)
		os.Exit(1)
	}
}

// run wires dependencies and blocks until SIGINT/SIGTERM or a component
// fails. Business logic lives in the internal service packages.
func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		reg *prometheus.Registry
		m   *metrics.Metrics
	)
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
	}

	signer, generated, err := signing.LoadOrGenerate(cfg.Scroll.SigningKeyFile, cfg.Scroll.SigningKeyBits)
	if err != nil {
		return fmt.Errorf("load signing key: %w", err)
	}
	if generated {
		log.Warn("scroll signing key generated for this process; signatures will not verify after restart",
			"key_bits", signer.KeyBits(),
		)
	}

	if cfg.Token.SecretGenerated {
		log.Warn("SCROLL_TOKEN_SECRET not set; using a random per-process secret", "env", cfg.Env)
	}
	issuer, err := jwttoken.NewIssuer([]byte(cfg.Token.Secret),
		jwttoken.WithIssuer(cfg.Token.Issuer),
		jwttoken.WithDefaultTTL(cfg.Token.TTL),
	)
	if err != nil {
		return fmt.Errorf("build token issuer: %w", err)
	}

	started := time.Now().UTC()
	ledger, meshState, checks, closeRedis, err := openStores(ctx, cfg, started, log)
	if err != nil {
		return err
	}
	defer closeRedis()

	auditor, closeAudit, err := openAudit(ctx, cfg.Kafka, cfg.Audit.BufferSize, log)
	if err != nil {
		return err
	}
	defer closeAudit()

	dns := mesh.NewDNSChecker(cfg.Mesh.DNSHost, cfg.Mesh.DNSTimeout, cfg.Mesh.DNSCacheTTL, nil, log)
	connector := mesh.NewConnector(meshState, ledger, dns, cfg.Mesh.PulseInterval,
		mesh.WithLogger(log),
		mesh.WithMetrics(m),
	)

	scrolls := scrollservice.New(ledger, signer, signer.Verifier(), issuer, connector, auditor,
		scrollservice.WithLogger(log),
		scrollservice.WithMetrics(m),
		scrollservice.WithMinFunding(float64(cfg.Scroll.MinFunding)),
	)
	licenses := licenseservice.New(issuer, ledger, connector, auditor,
		licenseservice.WithLogger(log),
		licenseservice.WithMetrics(m),
	)

	handlers := []httptransport.Registrar{
		scrollhandler.New(scrolls, log),
		licensehandler.New(licenses, jwttoken.NewIssuerAdapter(issuer), log),
		meshhandler.New(connector, log),
	}
	if cfg.Audit.AdminToken != "" {
		handlers = append(handlers, audithandler.New(auditor, cfg.Audit.AdminToken, log))
	} else {
		log.Info("AUDIT_ADMIN_TOKEN not set; audit read API disabled")
	}

	router := httptransport.NewRouter(httptransport.Options{
		Logger:   log,
		Metrics:  m,
		Gatherer: gathererOrNil(reg),
		Checks:   checks,
	}, handlers...)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting scrollvault",
		"addr", cfg.Addr,
		"env", cfg.Env,
		"redis", cfg.Redis.URL != "",
		"kafka_brokers", len(cfg.Kafka.Brokers),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpserver.Run(gctx, srv, log) })
	g.Go(func() error { return connector.RunPulse(gctx) })
	return g.Wait()
}

// openStores picks Redis-backed stores when REDIS_URL is set and in-memory
// ones otherwise.
func openStores(ctx context.Context, cfg config.Server, started time.Time, log *slog.Logger) (
	scrollservice.Ledger, mesh.State, map[string]httptransport.HealthCheck, func(), error,
) {
	client, err := platformredis.Open(ctx, cfg.Redis)
	switch {
	case errors.Is(err, platformredis.ErrNotConfigured):
		log.Info("REDIS_URL not set; ledger and mesh state are in memory")
		return scrollstore.NewInMemoryLedger(cfg.Scroll.PositionBaseline), meshstore.NewInMemoryState(started), nil, func() {}, nil
	case err != nil:
		return nil, nil, nil, nil, fmt.Errorf("open redis: %w", err)
	}

	ledger := scrollstore.NewRedisLedger(client, cfg.Scroll.PositionBaseline)
	checks := map[string]httptransport.HealthCheck{
		"redis": func(ctx context.Context) error { return client.Ping(ctx).Err() },
	}
	return ledger, meshstore.NewRedisState(client, started), checks, closer(client, log), nil
}

func closer(client *goredis.Client, log *slog.Logger) func() {
	return func() {
		if err := client.Close(); err != nil {
			log.Error("close redis", "error", err)
		}
	}
}

// openAudit starts the async audit publisher, fanning out to Kafka when
// brokers are configured. The returned func drains the publisher before
// closing the sink.
func openAudit(ctx context.Context, cfg config.KafkaConfig, bufferSize int, log *slog.Logger) (*publisher.Publisher, func(), error) {
	opts := []publisher.Option{
		publisher.WithAsyncBuffer(bufferSize),
		publisher.WithLogger(log),
	}
	if len(cfg.Brokers) > 0 {
		sink, err := kafkasink.NewSink(ctx, cfg.Brokers, cfg.AuditTopic)
		if err != nil {
			return nil, nil, fmt.Errorf("connect audit sink: %w", err)
		}
		if err := sink.EnsureTopic(ctx); err != nil {
			sink.Close()
			return nil, nil, err
		}
		opts = append(opts, publisher.WithSinks(audit.Sink(sink)))
		log.Info("audit events fan out to kafka", "topic", cfg.AuditTopic)

		pub := publisher.NewPublisher(auditmemory.NewInMemoryStore(), opts...)
		return pub, func() { pub.Close(); sink.Close() }, nil
	}
	pub := publisher.NewPublisher(auditmemory.NewInMemoryStore(), opts...)
	return pub, pub.Close, nil
}

func gathererOrNil(reg *prometheus.Registry) prometheus.Gatherer {
	if reg == nil {
		return nil
	}
	return reg
}
