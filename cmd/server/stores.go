package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"

	"inkregister/internal/adverse"
	"inkregister/internal/audit"
	"inkregister/internal/client"
	"inkregister/internal/identity"
	"inkregister/internal/objectstore"
	"inkregister/internal/platform/config"
	"inkregister/internal/platform/postgres"
	platformredis "inkregister/internal/platform/redis"
	"inkregister/internal/procedure"
	"inkregister/internal/retention"
	httptransport "inkregister/internal/transport/http"
)

// storeSet groups every persistence dependency main hands to the services.
type storeSet struct {
	clients    client.Store
	procedures procedure.Store
	adverse    adverse.Store
	auditLog   audit.Store
	profiles   identity.ProfileStore
	trl        identity.TokenRevocationList
	objects    objectstore.Store
	health     httptransport.HealthChecks

	// retentionTx is non-nil only on postgres, where erasure mutations and
	// their audit entries can commit atomically.
	retentionTx retention.TxRunner
}

// buildStores picks the backing stores from configuration. With DATABASE_URL
// set the process runs on postgres and S3; without it everything is
// in-memory, a single-node development mode that loses data on restart.
func buildStores(ctx context.Context, cfg config.Config, log *slog.Logger) (storeSet, func(), error) {
	cleanup := func() {}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return storeSet{}, cleanup, fmt.Errorf("connect redis: %w", err)
	}

	var trl identity.TokenRevocationList
	var redisCheck httptransport.HealthChecker
	if redisClient != nil {
		trl = identity.NewRedisTRL(redisClient.Client)
		redisCheck = redisClient.Health
	} else {
		log.Warn("REDIS_URL not set; token revocation is process-local")
		trl = identity.NewInMemoryTRL()
	}

	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set; running with in-memory stores")
		stores := storeSet{
			clients:    client.NewInMemoryStore(),
			procedures: procedure.NewInMemoryStore(),
			adverse:    adverse.NewInMemoryStore(),
			auditLog:   audit.NewInMemoryStore(),
			profiles:   identity.NewInMemoryProfileStore(),
			trl:        trl,
			objects:    objectstore.NewMemory(),
			health:     httptransport.HealthChecks{Redis: redisCheck},
		}
		if redisClient != nil {
			cleanup = func() { _ = redisClient.Close() }
		}
		return stores, cleanup, nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return storeSet{}, cleanup, fmt.Errorf("connect postgres: %w", err)
	}
	cleanup = func() {
		_ = db.Close()
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}

	awsSession, err := session.NewSession(&aws.Config{Region: aws.String(cfg.S3Region)})
	if err != nil {
		cleanup()
		return storeSet{}, func() {}, fmt.Errorf("create aws session: %w", err)
	}

	stores := storeSet{
		clients:    client.NewPostgresStore(db),
		procedures: procedure.NewPostgresStore(db),
		adverse:    adverse.NewPostgresStore(db),
		auditLog:   audit.NewPostgresStore(db),
		profiles:   identity.NewPostgresProfileStore(db),
		trl:        trl,
		objects:    objectstore.NewS3(awsSession, cfg.S3Bucket, cfg.S3Prefix),
		health: httptransport.HealthChecks{
			Database: dbCheck(db),
			Redis:    redisCheck,
		},
		retentionTx: newRetentionPostgresTx(db),
	}
	return stores, cleanup, nil
}

func dbCheck(db *sql.DB) httptransport.HealthChecker {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}
