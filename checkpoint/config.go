package checkpoint

import (
	"context"
	"fmt"
	"time"
)

// Backend names understood by New. Any other name is looked up in the registry.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQL    = "sql"
)

// Config selects and parameterizes the checkpoint store.
type Config struct {
	Backend string      `json:"backend,omitempty" yaml:"backend,omitempty"`
	Path    string      `json:"path,omitempty" yaml:"path,omitempty"` // FileStore root directory.
	Redis   RedisConfig `json:"redis" yaml:"redis"`
	SQL     SQLConfig   `json:"sql" yaml:"sql"`
}

// RedisConfig holds RedisStore connection parameters. URL, when set, takes
// precedence over Addr, Password, and DB.
type RedisConfig struct {
	URL       string `json:"url,omitempty" yaml:"url,omitempty"`
	Addr      string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Password  string `json:"password,omitempty" yaml:"password,omitempty"`
	DB        int    `json:"db,omitempty" yaml:"db,omitempty"`
	KeyPrefix string `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
	// TTL is a Go duration string such as "12h". Empty keeps threads forever.
	TTL string `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

func (c RedisConfig) ttl() (time.Duration, error) {
	if c.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid redis ttl %q: %w", c.TTL, err)
	}
	return d, nil
}

// SQLConfig names the gorm driver ("sqlite" or "postgres") and its DSN.
type SQLConfig struct {
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty"`
	DSN    string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
		Path:    ".hitl/threads",
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: defaultKeyPrefix,
		},
		SQL: SQLConfig{
			Driver: "sqlite",
			DSN:    "hitl.db",
		},
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Backend != "" {
		c.Backend = source.Backend
	}
	if source.Path != "" {
		c.Path = source.Path
	}

	if source.Redis.URL != "" {
		c.Redis.URL = source.Redis.URL
	}
	if source.Redis.Addr != "" {
		c.Redis.Addr = source.Redis.Addr
	}
	if source.Redis.Password != "" {
		c.Redis.Password = source.Redis.Password
	}
	if source.Redis.DB > 0 {
		c.Redis.DB = source.Redis.DB
	}
	if source.Redis.KeyPrefix != "" {
		c.Redis.KeyPrefix = source.Redis.KeyPrefix
	}
	if source.Redis.TTL != "" {
		c.Redis.TTL = source.Redis.TTL
	}

	if source.SQL.Driver != "" {
		c.SQL.Driver = source.SQL.Driver
	}
	if source.SQL.DSN != "" {
		c.SQL.DSN = source.SQL.DSN
	}
}

// New creates the Store selected by cfg.Backend. The memory, file, redis,
// and sql backends are constructed from cfg, so every call to New with the
// memory backend gets its own empty store. Other names resolve through the
// registry.
func New(ctx context.Context, cfg *Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("file checkpoint store requires a path")
		}
		return NewFileStore(cfg.Path), nil
	case BackendRedis:
		return DialRedis(ctx, cfg.Redis)
	case BackendSQL:
		return OpenSQL(cfg.SQL)
	default:
		return Get(cfg.Backend)
	}
}
