// Command server wires the application: configuration, storage backends,
// domain services, and the HTTP router. Business logic lives in the internal
// services; main only connects them.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"inkregister/internal/adverse"
	"inkregister/internal/audit"
	"inkregister/internal/client"
	"inkregister/internal/identity"
	"inkregister/internal/intake"
	"inkregister/internal/jwttoken"
	"inkregister/internal/platform/config"
	"inkregister/internal/platform/httpserver"
	"inkregister/internal/platform/logger"
	"inkregister/internal/platform/metrics"
	"inkregister/internal/retention"
	httptransport "inkregister/internal/transport/http"
)

const auditInboxSize = 256

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	stores, cleanup, err := buildStores(ctx, cfg, log)
	if err != nil {
		log.Error("store initialization failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	auditor := audit.NewPublisher(stores.auditLog)

	g, ctx := errgroup.WithContext(ctx)

	if len(cfg.KafkaBrokers) > 0 {
		sink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka sink initialization failed", "error", err)
			os.Exit(1)
		}
		defer sink.Close()

		inbox := make(chan audit.Entry, auditInboxSize)
		auditor = auditor.WithSink(inbox)
		worker := audit.NewWorker(sink, inbox, log, m.AuditSinkFailures.Inc)
		g.Go(func() error { return worker.Run(ctx) })
		log.Info("audit kafka sink enabled", "topic", cfg.AuditTopic)
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	identityService := identity.NewService(stores.profiles, stores.trl)

	retentionService := retention.NewService(stores.clients, stores.procedures, auditor, log, m, cfg.RetentionYears)
	if stores.retentionTx != nil {
		retentionService = retentionService.WithTxRunner(stores.retentionTx)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Intake:    intake.NewService(stores.clients, stores.procedures, stores.objects, auditor, log, m, cfg.MinClientAge),
		Retention: retentionService,
		Clients:   client.NewService(stores.clients),
		Adverse:   adverse.NewService(stores.adverse, stores.procedures, auditor, log, m),
		AuditLog:  stores.auditLog,
		Identity:  identityService,
		Tokens:    jwtService,
		Validator: jwttoken.NewJWTServiceAdapter(jwtService),
		Metrics:   m,
		Registry:  registry,
		Health:    stores.health,
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting inkregister", "addr", cfg.Addr)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
