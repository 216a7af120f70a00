// Package app собирает сервис смет из конфигурации и управляет его жизненным циклом.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/vladislavdragonenkov/qms/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/qms/internal/health"
	"github.com/vladislavdragonenkov/qms/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/qms/internal/metrics"
	"github.com/vladislavdragonenkov/qms/internal/service/catalog"
	"github.com/vladislavdragonenkov/qms/internal/service/query"
	"github.com/vladislavdragonenkov/qms/internal/service/quotation"
	"github.com/vladislavdragonenkov/qms/internal/service/recommend"
	"github.com/vladislavdragonenkov/qms/internal/service/search"
	"github.com/vladislavdragonenkov/qms/internal/version"
)

// Services: прикладные сервисы, доступные встраивающему коду.
type Services struct {
	Quotations *quotation.Service
	Queries    *query.Service
	Search     *search.Service
	Recommend  *recommend.Service
	Catalog    *catalog.Service
}

// App: собранный сервис смет.
type App struct {
	cfg      Config
	logger   *log.Entry
	deps     *runtimeDependencies
	producer *kafka.Producer
	health   *healthcheck.Handler

	// Clients: справочник клиентов выбранного хранилища.
	Clients  domain.ClientDirectory
	Services Services
}

// New собирает хранилища, публикатор событий и сервисы.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	logger := log.WithField("component", "app")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	publisher, producer := initEventPublisher(cfg, logger)
	quotationMetrics := metrics.NewQuotationMetrics()

	recommendSvc := recommend.NewService(deps.counterStore, deps.products, logger.WithField("component", "purchase-counter"))

	quotationDeps := quotation.Dependencies{
		Clients:    deps.clients,
		Products:   deps.products,
		Quotations: deps.quotations,
		LineItems:  deps.lineItems,
		Timeline:   deps.timeline,
		Purchases:  recommendSvc,
		Events:     publisher,
		Metrics:    quotationMetrics,
		Logger:     logger.WithField("component", "quotation-service"),
		Location:   loc,
	}
	quotationSvc, err := quotation.NewService(quotationDeps, cfg.Policy())
	if err != nil {
		closeKafka(producer, logger)
		deps.close(logger)
		return nil, err
	}

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", deps.storageChecker)
	if deps.cacheChecker != nil {
		healthHandler.RegisterChecker("cache", deps.cacheChecker)
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		deps:     deps,
		producer: producer,
		health:   healthHandler,
		Clients:  deps.clients,
		Services: Services{
			Quotations: quotationSvc,
			Queries:    query.NewService(deps.quotations, loc, logger.WithField("component", "quotation-query")),
			Search:     search.NewService(deps.products, deps.searchStore, quotationMetrics, logger.WithField("component", "product-search")),
			Recommend:  recommendSvc,
			Catalog:    catalog.NewService(deps.products, logger.WithField("component", "product-catalog")),
		},
	}, nil
}

// Close освобождает внешние ресурсы. Повторный вызов безопасен.
func (a *App) Close() {
	closeKafka(a.producer, a.logger)
	a.producer = nil
	a.deps.close(a.logger)
}

// Run собирает приложение и обслуживает его до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	application, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	return application.Serve(ctx)
}

// Serve запускает gRPC health и HTTP-эндпоинты метрик и проверок.
func (a *App) Serve(ctx context.Context) error {
	logger := a.logger

	grpcMetrics := promgrpc.NewServerMetrics()
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()))
	if err := prometheus.Register(grpcMetrics); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok2 := are.ExistingCollector.(*promgrpc.ServerMetrics); ok2 {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	grpcMetrics.InitializeMetrics(grpcServer)

	// Reflection нужен grpcurl и нагрузочным инструментам.
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", a.cfg.GRPCAddr)
	if err != nil {
		return err
	}

	metricsSrv := startMetricsServer(ctx, a.cfg.MetricsAddr, logger, a.health)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("gRPC сервер слушает %s", lis.Addr())
		errCh <- grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем gRPC сервер")
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		stoppedCh := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stoppedCh)
		}()
		select {
		case <-stoppedCh:
		case <-time.After(a.shutdownTimeout()):
			logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
			grpcServer.Stop()
		}
		shutdownHTTP(metricsSrv, a.shutdownTimeout(), logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, a.shutdownTimeout(), logger)
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

func (a *App) shutdownTimeout() time.Duration {
	if a.cfg.ShutdownTimeout > 0 {
		return a.cfg.ShutdownTimeout
	}
	return 5 * time.Second
}

// newHTTPMux собирает /metrics и проверки состояния.
func newHTTPMux(healthHandler *healthcheck.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	return mux
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	srv := &http.Server{Addr: addr, Handler: newHTTPMux(healthHandler), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, 5*time.Second, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, timeout time.Duration, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
