// Package app builds the service dependencies shared by the server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"replenishment-service/internal/engine"
	"replenishment-service/internal/ledger"
	"replenishment-service/internal/model"
	"replenishment-service/internal/operator"
	"replenishment-service/pkg/config"
	"replenishment-service/pkg/credential"
	"replenishment-service/pkg/database"
	"replenishment-service/pkg/logger"
	"replenishment-service/pkg/procurement"
	"replenishment-service/pkg/runlock"
	"replenishment-service/prometheus"
)

// Deps holds everything a running process needs
type Deps struct {
	Config    *config.Config
	Suppliers model.SupplierTable
	DB        *gorm.DB
	Redis     *redis.Client
	Engine    *engine.Engine
	Operators *operator.Store
	// Locker serializes live runs, across instances when Redis is configured
	Locker    runlock.Locker
}

// Build loads configuration and opens every backing service. Configuration
// problems come back as *config.ConfigError.
func Build(ctx context.Context, serviceName string) (*Deps, error) {
	cfg, err := config.Load(serviceName)
	if err != nil {
		return nil, err
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: serviceName,
	}); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log := logger.GetLogger()
	log.Info("Configuration loaded", cfg.LogFields()...)

	prometheus.InitMetrics(cfg.Metrics.Prefix)

	suppliers, err := config.LoadSupplierTable(cfg.Replenishment.SupplierTablePath)
	if err != nil {
		return nil, err
	}
	log.Info("Supplier table loaded",
		zap.String("version", suppliers.Version),
		zap.Int("suppliers", suppliers.Len()))

	deps := &Deps{Config: cfg, Suppliers: suppliers}

	deps.DB, err = database.Open(&cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := ledger.Migrate(deps.DB); err != nil {
			deps.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("Database schema migrated")
	}

	if err := operator.Migrate(deps.DB); err != nil {
		deps.Close()
		return nil, err
	}
	deps.Operators = operator.NewStore(deps.DB, log)

	deps.Redis, err = database.OpenRedis(ctx, &cfg.Redis)
	if err != nil {
		deps.Close()
		return nil, err
	}

	deps.Locker = runlock.NewLocalLocker()
	if deps.Redis != nil {
		deps.Locker = runlock.NewRedisLocker(deps.Redis, cfg.Replenishment.RunLockTTL)
		log.Info("Live runs serialized through Redis")
	}

	store, err := tokenStore(&cfg.Procurement, deps.Redis)
	if err != nil {
		deps.Close()
		return nil, err
	}

	client := procurement.NewClient(&cfg.Procurement, store, log)
	deps.Engine = engine.New(
		ledger.New(deps.DB, cfg.Database.QueryTimeout, log),
		suppliers,
		client,
		engine.Options{
			BaseCoverageDays: cfg.Replenishment.BaseCoverageDays,
			DemandWindowDays: cfg.Replenishment.DemandWindowDays,
			ABCWindowDays:    cfg.Replenishment.ABCWindowDays,
			StrictUnmapped:   cfg.Replenishment.StrictUnmapped,
		},
		log,
	)
	return deps, nil
}

// Close releases the database and Redis connections
func (d *Deps) Close() {
	log := logger.GetLogger()
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			log.Warn("Failed to close redis", zap.Error(err))
		}
	}
	if d.DB != nil {
		if err := database.Close(d.DB); err != nil {
			log.Warn("Failed to close database", zap.Error(err))
		}
	}
}

func tokenStore(cfg *config.ProcurementConfig, rdb *redis.Client) (credential.Store, error) {
	switch cfg.TokenStore {
	case "redis":
		if rdb == nil {
			return nil, &config.ConfigError{
				Field:  "Procurement.TokenStore",
				Reason: "redis token store needs REDIS_ADDRESS",
			}
		}
		return credential.NewRedisStore(rdb, cfg.TokenKey), nil
	default:
		return credential.NewFileStore(cfg.TokenFile), nil
	}
}
