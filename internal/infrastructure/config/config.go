package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Flag store backends.
const (
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	Port         string `env:"PORT,          default=8080"`
	Env          string `env:"ENV,           default=development"`
	LogLevel     string `env:"LOG_LEVEL,     default=info"`
	FlagsBackend string `env:"FLAGS_BACKEND, default=redis"`
	SPADir       string `env:"SPA_DIR"`
	// CORSOrigins is a comma-separated allow-list; "*" allows any origin.
	CORSOrigins string `env:"CORS_ORIGINS, default=http://localhost:5173"`

	Device  DeviceConfig
	Backend BackendConfig
	Audit   AuditConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type DeviceConfig struct {
	Secret     string        `env:"DEVICE_SECRET, required"`
	CookieName string        `env:"DEVICE_COOKIE, default=xplr_device"`
	MaxAge     time.Duration `env:"DEVICE_MAX_AGE, default=8760h"`
	Secure     bool          `env:"DEVICE_COOKIE_SECURE, default=false"`
}

type BackendConfig struct {
	BaseURL string        `env:"BACKEND_URL,     default=http://localhost:8081/api/v1"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT, default=10s"`
}

type AuditConfig struct {
	Enabled bool `env:"AUDIT_ENABLED, default=true"`
	Workers int  `env:"AUDIT_WORKERS, default=4"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=xplr_gateway"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads an optional .env file, then the process environment.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.FlagsBackend {
	case BackendRedis, BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("unknown FLAGS_BACKEND %q", c.FlagsBackend)
	}
	if len(c.Device.Secret) < 16 {
		return fmt.Errorf("DEVICE_SECRET must be at least 16 bytes")
	}
	return nil
}

// IsDevelopment reports whether pretty console logging should be used.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Origins splits CORSOrigins into a list.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
