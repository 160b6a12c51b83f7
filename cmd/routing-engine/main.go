package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"kire/cmd/routing-engine/internal/biz"
	"kire/cmd/routing-engine/internal/conf"
	"kire/cmd/routing-engine/internal/data"
	"kire/cmd/routing-engine/internal/domain"
	"kire/cmd/routing-engine/internal/server"
	"kire/cmd/routing-engine/internal/service"
	"kire/pkg/auth"
	"kire/pkg/cache"
	"kire/pkg/logger"
	"kire/pkg/observability"

	kratoslog "github.com/go-kratos/kratos/v2/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
)

var configFile = flag.String("config", "", "配置文件路径")

func main() {
	flag.Parse()

	config, err := conf.Load(*configFile)
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := logger.NewZap(
		config.Observability.LogFormat,
		config.Observability.LogLevel,
		config.Observability.ServiceName,
	)
	if err != nil {
		stdlog.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	klog := logger.NewZapLogger(zapLogger)

	zapLogger.Info("Starting Routing Engine",
		zap.String("version", config.Observability.ServiceVersion),
		zap.String("environment", config.Observability.Environment),
	)

	// 初始化链路追踪
	shutdownTracing, err := observability.InitTracing(context.Background(), observability.TracingConfig{
		ServiceName:    config.Observability.ServiceName,
		ServiceVersion: config.Observability.ServiceVersion,
		Environment:    config.Observability.Environment,
		Endpoint:       config.Observability.OTELEndpoint,
		SamplingRate:   config.Observability.SamplingRate,
		Enabled:        config.Observability.EnableTrace,
	})
	if err != nil {
		zapLogger.Fatal("Failed to init tracing", zap.Error(err))
	}

	// 组装应用
	app, cleanup, err := buildApp(config, klog, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize app", zap.Error(err))
	}
	defer cleanup()

	// 启动 HTTP 服务器
	httpAddr := fmt.Sprintf(":%d", config.Server.HTTPPort)
	srv := &http.Server{
		Addr:         httpAddr,
		Handler:      app.Engine(),
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
	}

	// 启动 Prometheus metrics 服务器
	metricsAddr := fmt.Sprintf(":%d", config.Server.MetricsPort)
	metricsSrv := &http.Server{
		Addr:    metricsAddr,
		Handler: promhttp.Handler(),
	}

	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", httpAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		zapLogger.Info("Metrics server starting", zap.String("addr", metricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Metrics server failed", zap.Error(err))
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := metricsSrv.Shutdown(ctx); err != nil {
		zapLogger.Error("Metrics server shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(ctx); err != nil {
		zapLogger.Error("Tracing shutdown failed", zap.Error(err))
	}

	zapLogger.Info("Servers exited")
}

// buildApp 手工装配依赖
func buildApp(config *conf.Config, klog kratoslog.Logger, zapLogger *zap.Logger) (*server.HTTPServer, func(), error) {
	cleanups := make([]func(), 0)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	// 提供商注册表 + 健康探测
	registry := data.NewConfigProviderRegistry(config.Routing.Providers, klog)
	probe := data.NewHTTPProviderProbe(config.Routing.Providers, config.Routing.ProbeTimeout)

	// Nacos模式下提供商表热更新
	if config.Nacos.Enabled {
		watcher, err := conf.NewProviderWatcher(config.Nacos)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		if providers, err := watcher.Fetch(); err == nil && len(providers) > 0 {
			registry.Swap(providers)
			probe.UpdateEndpoints(providers)
		}
		if err := watcher.Watch(func(providers []conf.ProviderConfig) {
			registry.Swap(providers)
			probe.UpdateEndpoints(providers)
		}); err != nil {
			zapLogger.Warn("Failed to watch provider table", zap.Error(err))
		}
	}

	// 存储后端：Redis可选，缺省走内存实现
	var decisionStore domain.DecisionLogStore
	var limiter biz.RateLimiter

	if config.Redis.Enabled {
		client, redisCleanup, err := data.NewRedis(&config.Redis, klog)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, redisCleanup)

		decisionStore = data.NewRedisDecisionLog(client, config.Routing.DecisionLogCapacity, klog)
		limiter = data.NewRedisRateLimiter(
			cache.NewRedisCache(client, nil),
			config.Routing.RateLimitWindow,
			config.Routing.RateLimitMaxCalls,
		)
	} else {
		decisionStore = data.NewMemoryDecisionLog(config.Routing.DecisionLogCapacity)
		limiter = biz.NewFixedWindowLimiter(config.Routing.RateLimitWindow, config.Routing.RateLimitMaxCalls)
	}

	// 画像存储：PostgreSQL可选
	var profileRepo domain.ProfileRepository
	if config.Database.Enabled {
		db, err := data.NewDB(&config.Database, klog)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		profileRepo = data.NewGormProfileRepo(db, klog)
	} else {
		profileRepo = data.NewMemoryProfileRepo()
	}

	// 业务层
	analyzer := biz.NewTaskAnalyzer(klog)
	reasoner := biz.NewCognitiveReasoner(klog)
	resolver := biz.NewProfileResolver(profileRepo, config.Routing.ProfileLookupTimeout, klog)
	routingCache := biz.NewRoutingCache(config.Routing.CacheMaxSize)
	cleanups = append(cleanups, routingCache.Close)
	dedup := biz.NewRequestDeduplicator()
	health := biz.NewProviderHealthChecker(probe, biz.HealthCheckerConfig{
		ProbeTimeout:          config.Routing.ProbeTimeout,
		FailureThreshold:      uint32(config.Routing.ProbeFailureThreshold),
		RecoveryTimeout:       config.Routing.ProbeRecoveryTimeout,
		FailureMeansUnhealthy: config.Routing.FailureMeansUnhealthy,
	}, klog)
	decisions := biz.NewDecisionLogger(decisionStore, klog)

	router := biz.NewKIRERouter(
		analyzer, reasoner, resolver,
		routingCache, dedup, health, decisions,
		registry,
		biz.RouterConfig{CacheTTL: config.Routing.CacheTTL},
		klog,
	)

	// 动作边界
	rbac := auth.NewRBACManager()
	actions := biz.NewActionRegistry(rbac, limiter, klog)
	actions.Register(biz.NewSelectAction(router))
	actions.Register(biz.NewProfileAction(resolver))
	actions.Register(biz.NewStatsAction(routingCache, dedup))
	actions.Register(biz.NewAuditAction(decisions))

	// 服务层与HTTP入口
	routingService := service.NewRoutingService(actions, klog)
	jwtManager := auth.NewJWTManager(config.Auth.JWTSecret, config.Auth.JWTExpiry)
	httpServer := server.NewHTTPServer(routingService, jwtManager, zapLogger)

	return httpServer, cleanup, nil
}
