package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tasklist-go/internal/core/service"
	"github.com/yndnr/tasklist-go/internal/infra/buildinfo"
	"github.com/yndnr/tasklist-go/internal/infra/confloader"
	"github.com/yndnr/tasklist-go/internal/infra/shutdown"
	"github.com/yndnr/tasklist-go/internal/server/config"
	"github.com/yndnr/tasklist-go/internal/server/httpserver"
	"github.com/yndnr/tasklist-go/internal/server/ratelimit"
	"github.com/yndnr/tasklist-go/internal/server/redisserver"
	"github.com/yndnr/tasklist-go/internal/storage"
	"github.com/yndnr/tasklist-go/internal/telemetry/logger"
	"github.com/yndnr/tasklist-go/internal/telemetry/metric"
	"github.com/yndnr/tasklist-go/internal/worker"
)

func main() {
	app := &cli.App{
		Name:    "tasklist-server",
		Usage:   "Shared append-only task list server",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				EnvVars: []string{"TASKLIST_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "watch-config",
				Value: true,
				Usage: "Re-apply log.level when the configuration file changes",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	configFile := c.String("config")

	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	slogLogger := log.Slog()

	info := buildinfo.Get()
	log.Info("starting tasklist-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile)

	metrics := metric.NewRegistry()

	journals := service.NewJournals(slogLogger, storage.RegisterJournalMetrics(metrics.Registerer()))
	journals.Init(storage.JournalParams{
		Dir:        cfg.Journal.Dir,
		InMemory:   cfg.Journal.InMemory,
		SyncWrites: cfg.Journal.SyncWrites,
	})

	opts := []service.Option{
		service.WithLogger(slogLogger),
		service.WithRegisterer(metrics.Registerer()),
		service.WithJournals(journals),
	}
	if cfg.List.BackoffMax > 0 {
		opts = append(opts, service.WithBackoff(cfg.List.BackoffMin, cfg.List.BackoffMax))
	}
	svc := service.NewTaskService(opts...)

	pool, err := worker.New(svc, cfg.Worker.Size, slogLogger)
	if err != nil {
		return fmt.Errorf("init worker pool: %w", err)
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter = ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		go limiter.Run(ctx, time.Minute)
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		TaskService: svc,
		Pool:        pool,
		Logger:      slogLogger,
		Metrics:     metrics,
		RateLimiter: limiter,
		EnableAudit: true,
	})

	httpOpts := httpserver.DefaultOptions()
	httpOpts.ReadTimeout = cfg.Server.HTTP.ReadTimeout
	httpOpts.WriteTimeout = cfg.Server.HTTP.WriteTimeout
	httpServer := httpserver.New(cfg.Server.HTTP.Addr, router, httpOpts)

	ln, err := net.Listen("tcp", cfg.Server.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.HTTP.Addr, err)
	}

	var redisServer *redisserver.Server
	if cfg.Server.Redis.Enabled {
		redisServer = redisserver.New(&redisserver.Config{
			Address:      cfg.Server.Redis.Addr,
			ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
			WriteTimeout: cfg.Server.HTTP.WriteTimeout,
			IdleTimeout:  cfg.Server.Redis.IdleTimeout,
			MaxConns:     cfg.Server.Redis.MaxConns,
			RateLimit:    cfg.RateLimit.RequestsPerSecond,
			RateBurst:    cfg.RateLimit.Burst,
		}, svc, metrics, slogLogger)
		if err := redisServer.Start(ctx); err != nil {
			_ = ln.Close()
			return fmt.Errorf("start redis listener: %w", err)
		}
		log.Info("redis listener started", "addr", redisServer.Addr().String())
	}

	// Hooks run in reverse order of registration.
	shutdownHandler := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout, slogLogger)
	shutdownHandler.OnShutdown("journals", func(context.Context) error {
		return journals.CloseAll()
	})
	shutdownHandler.OnShutdown("worker pool", pool.Stop)
	if redisServer != nil {
		shutdownHandler.OnShutdown("redis listener", redisServer.Shutdown)
	}
	shutdownHandler.OnShutdown("http server", httpServer.Shutdown)
	shutdownHandler.OnShutdown("readiness", func(context.Context) error {
		router.SetReady(false)
		return nil
	})

	if configFile != "" && c.Bool("watch-config") {
		watcher, err := watchLogLevel(configFile, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", ln.Addr().String())
		serveErr <- httpServer.Serve(ln)
	}()

	waitCtx, stop := context.WithCancelCause(ctx)
	defer stop(nil)
	go func() {
		if err := <-serveErr; err != nil {
			log.Error("HTTP server error", "error", err)
			stop(err)
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	err = shutdownHandler.Wait(waitCtx)
	if cause := context.Cause(waitCtx); cause != nil && !errors.Is(cause, context.Canceled) {
		err = errors.Join(cause, err)
	}
	if err != nil {
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// watchLogLevel reloads configFile on change and applies its log level.
// Other settings need a restart.
func watchLogLevel(configFile string, log logger.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log.Slog()))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(configFile); err != nil {
		_ = watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(path string) {
		cfg, err := loadConfig(path)
		if err != nil {
			log.Warn("config reload rejected", "path", path, "error", err)
			return
		}
		if logger.SetLevel(cfg.Log.Level) {
			log.Info("log level changed", "level", logger.GetLevel())
		}
	})
	watcher.StartAsync()
	return watcher, nil
}
