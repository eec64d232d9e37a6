package config

import "time"

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string        `env:"URI"                  envDefault:"localhost:6379"`
	Password           string        `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string      `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string        `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string        `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool          `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string      `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool          `env:"USE_CLUSTER"          envDefault:"false"`
	ConnectTimeout     time.Duration `env:"CONNECT_TIMEOUT"      envDefault:"30s"`
}

// AuditConfig contains the optional PostgreSQL audit trail configuration.
// When Enabled is false admin actions are only logged.
type AuditConfig struct {
	Enabled  bool   `env:"ENABLED"  envDefault:"false"`
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"tern"`
	Password string `env:"PASSWORD" envDefault:"tern"`
	Name     string `env:"NAME"     envDefault:"tern_admin"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// ConnectTimeout bounds startup retries while the database comes up.
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"30s"`
	// RunMigrationsOnStart controls whether the application applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// CacheConfig contains Redis-backed view cache configuration.
type CacheConfig struct {
	// ViewTTL is how long the account list backing admin views is cached.
	ViewTTL time.Duration `env:"VIEW_CACHE_TTL" envDefault:"30s"`
}

// Sanitize keeps cache TTLs non-negative.
func (c *CacheConfig) Sanitize() {
	if c.ViewTTL < 0 {
		c.ViewTTL = 0
	}
}
