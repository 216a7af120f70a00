package app

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/qms/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/qms/internal/health"
	"github.com/vladislavdragonenkov/qms/internal/resilience"
	"github.com/vladislavdragonenkov/qms/internal/storage/memory"
	"github.com/vladislavdragonenkov/qms/internal/storage/postgres"
	redisstore "github.com/vladislavdragonenkov/qms/internal/storage/redis"
)

// runtimeDependencies: хранилища и проверки, собранные по конфигурации.
type runtimeDependencies struct {
	clients    domain.ClientDirectory
	products   domain.ProductCatalog
	quotations domain.QuotationRepository
	lineItems  domain.LineItemRepository
	timeline   domain.TimelineRepository

	searchStore  domain.SearchCacheStore
	counterStore domain.PurchaseCounterStore

	storageChecker healthcheck.Checker
	cacheChecker   healthcheck.Checker

	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

// initRuntimeDependencies поднимает основное хранилище и кеш.
// При ошибке уже открытые ресурсы закрываются.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	deps := &runtimeDependencies{}

	if err := deps.initStorage(ctx, cfg, logger); err != nil {
		deps.close(logger)
		return nil, err
	}
	deps.initCache(ctx, cfg, logger)

	return deps, nil
}

func (d *runtimeDependencies) initStorage(ctx context.Context, cfg Config, logger *log.Entry) error {
	switch cfg.StorageDriver {
	case "", StorageDriverMemory:
		d.clients = memory.NewClientDirectory()
		d.products = memory.NewProductCatalog()
		d.quotations = memory.NewQuotationRepository()
		d.lineItems = memory.NewLineItemRepository()
		d.timeline = memory.NewTimelineRepository()
		d.storageChecker = healthcheck.NewFuncCheck("storage", func(context.Context) error { return nil })
		logger.Info("using in-memory storage")
		return nil

	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return errors.New("postgres storage driver requires QMS_POSTGRES_DSN")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN, postgres.WithMaxOpenConns(cfg.PostgresMaxConns))
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		d.closers = append(d.closers, namedCloser{name: "postgres", close: store.Close})

		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			version, applied, err := store.MigrationStatus(ctx)
			if err != nil {
				return fmt.Errorf("migration status: %w", err)
			}
			logger.WithFields(log.Fields{"version": version, "applied": applied}).Info("postgres schema is up to date")
		}

		d.clients = postgres.NewClientDirectory(store)
		d.products = postgres.NewProductCatalog(store)
		d.quotations = postgres.NewQuotationRepository(store)
		d.lineItems = postgres.NewLineItemRepository(store)
		d.timeline = postgres.NewTimelineRepository(store)
		d.storageChecker = healthcheck.NewFuncCheck("postgres", store.Ping)
		logger.Info("using postgres storage")
		return nil

	default:
		return fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// initCache выбирает Redis или память для кеша поиска и счётчиков.
// Недоступный Redis не мешает запуску: сервис работает на памяти процесса.
func (d *runtimeDependencies) initCache(ctx context.Context, cfg Config, logger *log.Entry) {
	var (
		searchStore  domain.SearchCacheStore
		counterStore domain.PurchaseCounterStore
	)

	client, err := openRedis(ctx, cfg.RedisURL)
	switch {
	case err != nil:
		logger.WithError(err).Warn("redis is unavailable, using in-memory search cache and purchase counters")
	case client != nil:
		d.closers = append(d.closers, namedCloser{name: "redis", close: client.Close})
		searchStore = redisstore.NewSearchStore(client)
		counterStore = redisstore.NewCounterStore(client)
		d.cacheChecker = healthcheck.NewOptionalFuncCheck("redis", redisstore.NewChecker(client).Check)
		logger.Info("using redis search cache and purchase counters")
	}
	if searchStore == nil {
		searchStore = memory.NewSearchStore()
		counterStore = memory.NewCounterStore()
	}

	breakerLogger := logger.WithField("component", "circuit-breaker")
	d.searchStore = resilience.GuardSearchStore(searchStore,
		resilience.NewCircuitBreaker("search_cache", cfg.BreakerMaxFailures, cfg.BreakerResetTimeout, breakerLogger.WithField("store", "search_cache")))
	d.counterStore = resilience.GuardCounterStore(counterStore,
		resilience.NewCircuitBreaker("purchase_counter", cfg.BreakerMaxFailures, cfg.BreakerResetTimeout, breakerLogger.WithField("store", "purchase_counter")))
}

func openRedis(ctx context.Context, url string) (*goredis.Client, error) {
	if url == "" {
		return nil, nil
	}
	return redisstore.Open(ctx, url)
}

// close закрывает ресурсы в обратном порядке открытия.
func (d *runtimeDependencies) close(logger *log.Entry) {
	for i := len(d.closers) - 1; i >= 0; i-- {
		c := d.closers[i]
		if err := c.close(); err != nil {
			logger.WithError(err).WithField("resource", c.name).Warn("failed to close resource")
			continue
		}
		logger.WithField("resource", c.name).Info("resource closed")
	}
	d.closers = nil
}
