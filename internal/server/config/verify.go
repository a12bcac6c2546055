package config

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/yndnr/tasklist-go/internal/telemetry/logger"
)

// MaxWorkerSize bounds worker.size.
const MaxWorkerSize = 1024

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyList(&cfg.List); err != nil {
		return err
	}
	if cfg.Worker.Size < 1 || cfg.Worker.Size > MaxWorkerSize {
		return fmt.Errorf("worker.size must be between 1 and %d, got %d", MaxWorkerSize, cfg.Worker.Size)
	}
	if err := verifyJournal(&cfg.Journal); err != nil {
		return err
	}
	if cfg.RateLimit.RequestsPerSecond < 0 {
		return errors.New("ratelimit.requests_per_second must not be negative")
	}
	if cfg.RateLimit.RequestsPerSecond > 0 && cfg.RateLimit.Burst < 1 {
		return errors.New("ratelimit.burst must be at least 1 when rate limiting is enabled")
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if err := verifyAddr("server.http.addr", cfg.HTTP.Addr); err != nil {
		return err
	}
	if cfg.HTTP.ReadTimeout < 0 || cfg.HTTP.WriteTimeout < 0 || cfg.HTTP.ShutdownTimeout < 0 {
		return errors.New("server.http timeouts must not be negative")
	}
	if !cfg.Redis.Enabled {
		return nil
	}
	if err := verifyAddr("server.redis.addr", cfg.Redis.Addr); err != nil {
		return err
	}
	if cfg.Redis.Addr == cfg.HTTP.Addr {
		return fmt.Errorf("server.redis.addr conflicts with server.http.addr (%s)", cfg.HTTP.Addr)
	}
	if cfg.Redis.MaxConns < 1 {
		return errors.New("server.redis.max_conns must be at least 1")
	}
	return nil
}

func verifyAddr(key, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", key)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: invalid address %q: %w", key, addr, err)
	}
	return nil
}

func verifyList(cfg *ListSection) error {
	if cfg.BackoffMin < 0 || cfg.BackoffMax < 0 {
		return errors.New("list backoff durations must not be negative")
	}
	if cfg.BackoffMax > 0 && cfg.BackoffMin > cfg.BackoffMax {
		return fmt.Errorf("list.backoff_min (%s) exceeds list.backoff_max (%s)", cfg.BackoffMin, cfg.BackoffMax)
	}
	return nil
}

func verifyJournal(cfg *JournalSection) error {
	if cfg.InMemory {
		return nil
	}
	if cfg.Dir == "" {
		return errors.New("journal.dir is required unless journal.in_memory is set")
	}
	if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
		return fmt.Errorf("cannot create journal directory: %w", err)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	if !logger.ValidFormat(cfg.Format) {
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
	return nil
}
