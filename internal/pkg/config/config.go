package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Identity providers selectable with IDENTITY_PROVIDER.
const (
	ProviderLocal  = "local"
	ProviderGoTrue = "gotrue"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Identity IdentityConfig
	Session  SessionConfig
	Waitlist WaitlistConfig
}

type MongoConfig struct {
	URI         string `env:"MONGO_URI,           default=mongodb://localhost:27017"`
	Database    string `env:"MONGO_DB,            default=haphazard"`
	MaxPoolSize uint64 `env:"MONGO_MAX_POOL_SIZE, default=50"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,      default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,        default=0"`
	PoolSize int    `env:"REDIS_POOL_SIZE, default=10"`
}

type IdentityConfig struct {
	Provider       string        `env:"IDENTITY_PROVIDER, default=local"`
	JWTSecret      string        `env:"JWT_SECRET"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL,  default=1h"`
	GoTrueURL      string        `env:"GOTRUE_URL"`
	GoTrueAnonKey  string        `env:"GOTRUE_ANON_KEY"`
	GoTrueTimeout  time.Duration `env:"GOTRUE_TIMEOUT,    default=10s"`
}

type SessionConfig struct {
	CookieName    string        `env:"SESSION_COOKIE_NAME,    default=haphazard_session"`
	CookieSecure  bool          `env:"SESSION_COOKIE_SECURE,  default=false"`
	TTL           time.Duration `env:"SESSION_TTL,            default=720h"`
	IdleTTL       time.Duration `env:"SESSION_IDLE_TTL,       default=30m"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL, default=1m"`
	RefreshWindow time.Duration `env:"SESSION_REFRESH_WINDOW, default=2m"`
	GuardInitWait time.Duration `env:"GUARD_INITIAL_WAIT,     default=1500ms"`
}

type WaitlistConfig struct {
	ConvertKitUID    string `env:"WAITLIST_CONVERTKIT_UID,     default=37689e09df"`
	ConvertKitFormID string `env:"WAITLIST_CONVERTKIT_FORM_ID"`
	ConvertKitAPIKey string `env:"WAITLIST_CONVERTKIT_API_KEY"`
	Workers          int    `env:"WAITLIST_WORKERS,            default=4"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

// LoadWith reads configuration through lookuper and checks cross-field
// requirements.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	switch c.Identity.Provider {
	case ProviderLocal:
		if c.Identity.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required for the local identity provider")
		}
	case ProviderGoTrue:
		if c.Identity.GoTrueURL == "" || c.Identity.GoTrueAnonKey == "" {
			return fmt.Errorf("GOTRUE_URL and GOTRUE_ANON_KEY are required for the gotrue identity provider")
		}
	default:
		return fmt.Errorf("unknown IDENTITY_PROVIDER %q", c.Identity.Provider)
	}
	if c.Waitlist.ConvertKitFormID != "" && c.Waitlist.ConvertKitAPIKey == "" {
		return fmt.Errorf("WAITLIST_CONVERTKIT_API_KEY is required when WAITLIST_CONVERTKIT_FORM_ID is set")
	}
	return nil
}
