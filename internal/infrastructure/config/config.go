package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=5000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth  AuthConfig
	HTTP  HTTPConfig
	Mongo MongoConfig
	Redis RedisConfig
	Jobs  JobsConfig
}

type AuthConfig struct {
	JWTSecret    string        `env:"JWT_SECRET, required"`
	TokenTTL     time.Duration `env:"TOKEN_TTL,     default=24h"`
	BcryptCost   int           `env:"BCRYPT_COST,   default=10"`
	CookieName   string        `env:"COOKIE_NAME,   default=token"`
	CookieSecure bool          `env:"COOKIE_SECURE, default=false"`
}

type HTTPConfig struct {
	CORSOrigins  []string `env:"CORS_ORIGINS,   default=http://localhost:3000"`
	RateLimitRPS float64  `env:"RATE_LIMIT_RPS, default=20"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=blog_website"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type JobsConfig struct {
	ReconcileSchedule string        `env:"RECONCILE_SCHEDULE, default=@every 1h"`
	ReconcileTimeout  time.Duration `env:"RECONCILE_TIMEOUT,  default=10m"`
	ActivityWorkers   int           `env:"ACTIVITY_WORKERS,   default=4"`
}

// IsDevelopment reports whether the service runs locally (pretty logs).
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Load reads .env files (when present) and then the process environment
// using go-envconfig. Variables already set in the environment win.
func Load(ctx context.Context) (*Config, error) {
	loadDotEnv()
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if len(cfg.Auth.JWTSecret) < 16 {
		return nil, fmt.Errorf("config: JWT_SECRET must be at least 16 bytes")
	}
	return &cfg, nil
}

// loadDotEnv follows the dotenv convention: .env.<env>.local, .env.local,
// .env.<env>, .env, earlier files taking precedence. Missing files are ignored.
func loadDotEnv() {
	env := envconfig.OsLookuper()
	name := "development"
	if v, ok := env.Lookup("ENV"); ok && v != "" {
		name = v
	}
	for _, f := range []string{".env." + name + ".local", ".env.local", ".env." + name, ".env"} {
		_ = godotenv.Load(f)
	}
}
