package config

import "time"

// ServerConfig is the root configuration of tasklist-server.
type ServerConfig struct {
	Server    ServerSection    `koanf:"server" yaml:"server"`
	List      ListSection      `koanf:"list" yaml:"list"`
	Worker    WorkerSection    `koanf:"worker" yaml:"worker"`
	Journal   JournalSection   `koanf:"journal" yaml:"journal"`
	RateLimit RateLimitSection `koanf:"ratelimit" yaml:"ratelimit"`
	Log       LogSection       `koanf:"log" yaml:"log"`
}

// ServerSection configures the listeners.
type ServerSection struct {
	HTTP  HTTPConfig  `koanf:"http" yaml:"http"`
	Redis RedisConfig `koanf:"redis" yaml:"redis"`
}

// HTTPConfig configures the HTTP listener.
type HTTPConfig struct {
	Addr            string        `koanf:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// RedisConfig configures the optional RESP listener.
type RedisConfig struct {
	Enabled     bool          `koanf:"enabled" yaml:"enabled"`
	Addr        string        `koanf:"addr" yaml:"addr"`
	IdleTimeout time.Duration `koanf:"idle_timeout" yaml:"idle_timeout"`
	MaxConns    int           `koanf:"max_conns" yaml:"max_conns"`
}

// ListSection tunes the task list.
type ListSection struct {
	// BackoffMin and BackoffMax bound the sleep between contended appends.
	// BackoffMax of zero disables backoff.
	BackoffMin time.Duration `koanf:"backoff_min" yaml:"backoff_min"`
	BackoffMax time.Duration `koanf:"backoff_max" yaml:"backoff_max"`
}

// WorkerSection sizes the batch worker pool.
type WorkerSection struct {
	Size int `koanf:"size" yaml:"size"`
}

// JournalSection holds the per-execution-context journal parameters.
type JournalSection struct {
	Dir        string `koanf:"dir" yaml:"dir"`
	InMemory   bool   `koanf:"in_memory" yaml:"in_memory"`
	SyncWrites bool   `koanf:"sync_writes" yaml:"sync_writes"`
}

// RateLimitSection configures per-client request limits.
// RequestsPerSecond of zero disables limiting.
type RateLimitSection struct {
	RequestsPerSecond float64 `koanf:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `koanf:"burst" yaml:"burst"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}
