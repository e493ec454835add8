package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codejudge/internal/common/cache"
	commonmw "codejudge/internal/common/http/middleware"
	"codejudge/internal/common/mq"
	"codejudge/internal/common/storage"
	"codejudge/internal/judge/admission"
	"codejudge/internal/judge/controller"
	"codejudge/internal/judge/evaluator"
	"codejudge/internal/judge/executor"
	"codejudge/internal/judge/language"
	"codejudge/internal/judge/prepare"
	"codejudge/internal/judge/repository"
	"codejudge/internal/judge/sandbox/engine"
	"codejudge/internal/judge/sandbox/observer"
	"codejudge/internal/judge/sandbox/runner"
	"codejudge/internal/judge/service"
	"codejudge/internal/judge/workspace"
	"codejudge/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/judge_service.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(appCfg); err != nil {
		logger.Error(context.Background(), "judge service stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(appCfg *AppConfig) error {
	ctx := context.Background()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observer.NewPrometheusRecorder(registry)

	languages := language.NewRegistry()
	for _, spec := range appCfg.Language.Languages {
		if err := languages.Register(spec); err != nil {
			return fmt.Errorf("register language %s failed: %w", spec.ID, err)
		}
	}
	preparer, err := buildPreparer(appCfg.Prepare, languages)
	if err != nil {
		return err
	}

	exec, err := buildExecutor(ctx, appCfg, languages, preparer, metrics)
	if err != nil {
		return err
	}

	svcCfg := service.Config{
		Executor:       exec,
		Problems:       preparer,
		Gate:           buildGate(ctx, appCfg.Admission, metrics),
		ExecuteTimeout: appCfg.Judge.ExecuteTimeout,
		StatusTimeout:  appCfg.Status.Timeout,
	}

	if appCfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCacheWithConfig(&appCfg.Redis)
		if err != nil {
			return fmt.Errorf("init redis failed: %w", err)
		}
		defer func() {
			_ = redisCache.Close()
		}()
		svcCfg.StatusRepo = repository.NewStatusRepository(redisCache, appCfg.Status.TTL)
	} else {
		logger.Warn(ctx, "redis not configured, execution status will not be stored")
	}

	if len(appCfg.Kafka.Brokers) > 0 {
		producer, err := mq.NewKafkaProducer(appCfg.Kafka)
		if err != nil {
			return fmt.Errorf("init kafka failed: %w", err)
		}
		defer func() {
			_ = producer.Close()
		}()
		svcCfg.Publisher = repository.NewMQStatusEventPublisher(producer, appCfg.Status.FinalTopic)
	}

	if appCfg.Archive.Enabled {
		objStorage, err := storage.NewMinIOStorage(appCfg.MinIO)
		if err != nil {
			return fmt.Errorf("init minio failed: %w", err)
		}
		if err := objStorage.EnsureBucket(ctx, appCfg.MinIO.Bucket); err != nil {
			return fmt.Errorf("ensure archive bucket failed: %w", err)
		}
		svcCfg.Archive = repository.NewVerdictArchive(objStorage, appCfg.MinIO.Bucket, appCfg.Archive.Prefix)
	}

	judgeSvc, err := service.NewService(svcCfg)
	if err != nil {
		return fmt.Errorf("init judge service failed: %w", err)
	}

	httpServer := buildHTTPServer(appCfg.Server, judgeSvc, registry)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("init http listener failed: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "judge http server started",
			zap.String("addr", appCfg.Server.Addr),
			zap.String("backend", exec.Name()),
			zap.String("method", executor.Describe(exec.Name())),
		)
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server stopped: %w", err)
		}
	case <-shutdownCtx.Done():
		logger.Info(ctx, "shutdown signal received")
	}

	// In-flight executions finish before the server returns.
	ctxShutdown, cancel := context.WithTimeout(ctx, defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logger.Error(ctx, "http server shutdown failed", zap.Error(err))
	}
	return nil
}

func buildPreparer(cfg prepare.Config, languages *language.Registry) (*prepare.Preparer, error) {
	preparer := prepare.NewPreparer(languages, prepare.NewTemplateRegistry(), cfg)
	if err := preparer.RegisterProblems(cfg.Problems); err != nil {
		return nil, fmt.Errorf("register problems failed: %w", err)
	}
	return preparer, nil
}

func buildExecutor(ctx context.Context, appCfg *AppConfig, languages *language.Registry, preparer *prepare.Preparer, metrics observer.MetricsRecorder) (executor.Executor, error) {
	name := appCfg.Judge.BackendName()
	var deps executor.Deps
	switch name {
	case executor.BackendRemote:
		deps.Remote = executor.NewRemoteExecutor(appCfg.Remote, languages, preparer, metrics)
	case executor.BackendContainer, executor.BackendNative:
		ws, err := workspace.NewManager(appCfg.Judge.WorkRoot)
		if err != nil {
			return nil, fmt.Errorf("init workspace failed: %w", err)
		}
		var eng engine.Engine
		if name == executor.BackendContainer {
			if appCfg.Container.Preflight {
				if err := preflightImages(ctx, languages); err != nil {
					return nil, err
				}
			}
			// The docker client runs without the native helper and needs DOCKER_* from the host.
			// Containers only see the explicit -e values.
			supervisor := engine.NewProcessEngine(engine.Config{MaxOutputBytes: appCfg.Sandbox.MaxOutputBytes, InheritEnv: true})
			eng = engine.NewContainerEngine(supervisor, appCfg.Container.ContainerConfig)
		} else {
			eng = engine.NewProcessEngine(appCfg.Sandbox.toEngineConfig())
		}
		jobRunner := runner.NewRunnerWithObserver(eng, runner.Config{
			CompileTimeoutMs: appCfg.Judge.CompileTimeoutMs,
			MemoryMB:         appCfg.Sandbox.MemoryMB,
			PIDs:             appCfg.Sandbox.PIDs,
			OutputMB:         appCfg.Sandbox.OutputMB,
		}, metrics)
		local := executor.NewLocalExecutor(name, executor.LocalDeps{
			Languages: languages,
			Preparer:  preparer,
			Compiler:  jobRunner,
			Evaluator: evaluator.NewEvaluator(jobRunner, evaluator.Config{
				DefaultTimeoutMs: appCfg.Judge.TimeoutMs,
				MaxTimeoutMs:     appCfg.Judge.MaxTimeoutMs,
			}, metrics),
			Workspace: ws,
			Metrics:   metrics,
		})
		if name == executor.BackendContainer {
			deps.Container = local
		} else {
			deps.Native = local
		}
	}
	return executor.Select(appCfg.Judge.SelectConfig, deps)
}

func preflightImages(ctx context.Context, languages *language.Registry) error {
	checker, err := engine.NewImageChecker()
	if err != nil {
		return err
	}
	ctxCheck, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()
	if err := checker.Ping(ctxCheck); err != nil {
		return err
	}
	specs := languages.List()
	images := make([]string, 0, len(specs))
	for _, spec := range specs {
		images = append(images, spec.Image)
	}
	return checker.EnsureImages(ctxCheck, images)
}

func buildGate(ctx context.Context, cfg admission.Config, metrics observer.MetricsRecorder) *admission.Gate {
	var probe admission.LoadProbe
	if cfg.MaxLoadPerCPU > 0 || cfg.MinMemAvailable > 0 {
		procProbe, err := admission.NewProcProbe("")
		if err != nil {
			logger.Warn(ctx, "host load probe unavailable, load checks disabled", zap.Error(err))
		} else {
			probe = procProbe
		}
	}
	return admission.NewGate(cfg, probe, metrics)
}

func buildHTTPServer(cfg ServerConfig, judgeSvc *service.Service, registry *prometheus.Registry) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(commonmw.TraceContextMiddleware())
	router.Use(requestLogger())

	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1/judge")
	controller.NewJudgeController(judgeSvc).Register(api)

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		logger.Info(
			c.Request.Context(),
			"request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
