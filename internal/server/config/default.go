package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	DefaultRedisAddr        = "127.0.0.1:6379"
	DefaultRedisIdleTimeout = 5 * time.Minute
	DefaultRedisMaxConns    = 1024

	DefaultWorkerSize = 4
	DefaultJournalDir = "/var/lib/tasklist-server/journal"

	DefaultRequestsPerSecond = 100
	DefaultBurst             = 200

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
// Journals are kept in memory unless configured otherwise.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				ReadTimeout:     DefaultReadTimeout,
				WriteTimeout:    DefaultWriteTimeout,
				ShutdownTimeout: DefaultShutdownTimeout,
			},
			Redis: RedisConfig{
				Enabled:     false,
				Addr:        DefaultRedisAddr,
				IdleTimeout: DefaultRedisIdleTimeout,
				MaxConns:    DefaultRedisMaxConns,
			},
		},
		Worker: WorkerSection{
			Size: DefaultWorkerSize,
		},
		Journal: JournalSection{
			Dir:      DefaultJournalDir,
			InMemory: true,
		},
		RateLimit: RateLimitSection{
			RequestsPerSecond: DefaultRequestsPerSecond,
			Burst:             DefaultBurst,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
