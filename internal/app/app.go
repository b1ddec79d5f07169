package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/doceeser/orderboard/internal/auth"
	"github.com/doceeser/orderboard/internal/board"
	"github.com/doceeser/orderboard/internal/health"
	"github.com/doceeser/orderboard/internal/metrics"
	"github.com/doceeser/orderboard/internal/rpc/boardv1"
	grpcsvc "github.com/doceeser/orderboard/internal/service/grpc"
	"github.com/doceeser/orderboard/internal/shellcache"
	"github.com/doceeser/orderboard/internal/version"
	"github.com/doceeser/orderboard/internal/web"
)

const shutdownTimeout = 5 * time.Second

// Run собирает доску заказов и обслуживает HTTP, gRPC и метрики до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = uuid.NewString() + uuid.NewString()
		logger.Warn("BOARD_SESSION_SECRET is not set, sessions will not survive a restart")
	}

	boardMetrics := metrics.NewBoardMetrics()

	store, closeStore, err := openOrderStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	gate := auth.NewGate(cfg.AdminPassword, cfg.SessionSecret, cfg.SessionTTL)
	registry := board.NewRegistry(store, board.SessionConfig{
		BannerDuration:  cfg.BannerDuration,
		AnnounceInitial: cfg.AnnounceExisting,
		Logger:          logger.WithField("layer", "board"),
		Metrics:         boardMetrics,
	})
	defer registry.CloseAll()
	mutator := board.NewStatusMutator(store, logger.WithField("layer", "mutator"), boardMetrics, cfg.StatusTimeout)

	webHandler, err := web.NewHandler(web.Deps{
		Gate:     gate,
		Registry: registry,
		Mutator:  mutator,
		Cache:    shellcache.New(cfg.CacheVersion, shellcache.DefaultAssets, logger.WithField("layer", "shell-cache")),
		Logger:   logger.WithField("layer", "http"),
	})
	if err != nil {
		return fmt.Errorf("build web handler: %w", err)
	}

	kafkaParts := initKafka(cfg, store, boardMetrics, logger.WithField("layer", "kafka"))
	defer kafkaParts.close(logger)

	healthHandler := health.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", health.NewPingChecker("storage", store.Ping))
	if kafkaParts != nil {
		healthHandler.RegisterChecker("kafka", health.NewOptionalChecker("kafka", kafkaParts.intakeReady))
	}

	grpcServer, healthServer := newGRPCServer(gate, registry, mutator, logger)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}
	webSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: webHandler.Routes(), ReadHeaderTimeout: 10 * time.Second}
	metricsSrv := newMetricsServer(cfg.MetricsAddr, healthHandler)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("gRPC сервер слушает %s", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Infof("панель доступна по адресу %s/admin", cfg.HTTPAddr)
		if err := webSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Infof("метрики доступны по адресу %s/metrics", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
		return nil
	})

	kafkaParts.startIntake(gctx, logger)
	if sinks := alertSinks(cfg, kafkaParts); len(sinks) > 0 {
		announcer := newAnnouncer(store, sinks, boardMetrics, logger.WithField("layer", "announcer"))
		g.Go(func() error {
			runAnnouncer(gctx, announcer, logger)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("получен сигнал остановки, останавливаем серверы")
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		registry.CloseAll()
		stopGRPC(grpcServer, logger)
		shutdownHTTP(webSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// newGRPCServer регистрирует BoardService с авторизацией, метриками, health и reflection.
func newGRPCServer(gate *auth.Gate, registry *board.Registry, mutator *board.StatusMutator, logger *log.Entry) (*grpc.Server, *grpchealth.Server) {
	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok2 := are.ExistingCollector.(*promgrpc.ServerMetrics); ok2 {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor(), grpcsvc.AuthUnaryInterceptor(gate)),
		grpc.ChainStreamInterceptor(grpcMetrics.StreamServerInterceptor(), grpcsvc.AuthStreamInterceptor(gate)),
	)
	boardv1.RegisterBoardServiceServer(server, grpcsvc.NewBoardService(gate, registry, mutator, logger.WithField("layer", "grpc")))
	grpcMetrics.InitializeMetrics(server)
	reflection.Register(server)

	healthServer := grpchealth.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	return server, healthServer
}

// stopGRPC останавливает сервер и принудительно рвёт соединения по таймауту.
// Живые потоки WatchBoard к этому моменту уже закрыты через реестр сессий.
func stopGRPC(server *grpc.Server, logger *log.Entry) {
	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(shutdownTimeout):
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		server.Stop()
	}
}

// newMetricsServer собирает HTTP-обработчик /metrics и health-эндпоинты.
func newMetricsServer(addr string, healthHandler *health.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", health.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
