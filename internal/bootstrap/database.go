package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/ternsecure/tern-admin/config"
	"github.com/ternsecure/tern-admin/internal/data"
)

// pingTimeout bounds a single connection attempt.
const pingTimeout = 5 * time.Second

// DatabaseConfig contains configuration for infrastructure connections.
type DatabaseConfig struct {
	Audit  config.AuditConfig
	Redis  config.RedisConfig
	Logger *slog.Logger
}

func (c DatabaseConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// retryConnect runs connect with exponential backoff until it succeeds or maxElapsed passes.
func retryConnect[T any](ctx context.Context, what string, maxElapsed time.Duration, logger *slog.Logger, connect func() (T, error)) (T, error) {
	if maxElapsed <= 0 {
		maxElapsed = 30 * time.Second
	}
	return backoff.Retry(ctx, connect,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.WarnContext(ctx, what+" not ready, retrying", "error", err, "retry_in", next)
		}),
	)
}

// AuditDSN renders the audit database settings as a pgx connection URL.
func AuditDSN(cfg config.AuditConfig) string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Name,
	}
	q := u.Query()
	q.Set("sslmode", cfg.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// ConnectDB opens the audit database and waits for it to answer.
func ConnectDB(ctx context.Context, cfg DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", AuditDSN(cfg.Audit))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	_, err = retryConnect(ctx, "audit database", cfg.Audit.ConnectTimeout, cfg.logger(), func() (struct{}, error) {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return struct{}{}, db.PingContext(pingCtx)
	})
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close database connection: %w", closeErr))
		}
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.logger().InfoContext(ctx, "audit database connected",
		"host", cfg.Audit.Host,
		"port", cfg.Audit.Port,
		"database", cfg.Audit.Name,
	)
	return db, nil
}

// ConnectRedis builds a direct, sentinel or cluster client and waits for it to answer.
//
//nolint:ireturn // returning redis.UniversalClient lets us pick single, sentinel, or cluster clients at runtime.
func ConnectRedis(ctx context.Context, cfg DatabaseConfig) (redis.UniversalClient, error) {
	var (
		client   redis.UniversalClient
		addrDesc string
		err      error
	)

	switch {
	case cfg.Redis.UseCluster:
		client, addrDesc, err = newClusterClient(cfg.Redis)
	case cfg.Redis.UseSentinel:
		client, addrDesc, err = newSentinelClient(cfg.Redis)
	default:
		client, addrDesc, err = newDirectClient(cfg.Redis)
	}
	if err != nil {
		return nil, err
	}

	_, err = retryConnect(ctx, "redis", cfg.Redis.ConnectTimeout, cfg.logger(), func() (string, error) {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return client.Ping(pingCtx).Result()
	})
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	cfg.logger().InfoContext(ctx, "redis connected", "addr", redactAddr(addrDesc))
	return client, nil
}

// redactAddr strips credentials from a redis URL before it is logged.
func redactAddr(addr string) string {
	if u, err := url.Parse(addr); err == nil && u.User != nil {
		return u.Redacted()
	}
	if i := strings.LastIndex(addr, "@"); i > -1 {
		return addr[i+1:]
	}
	return addr
}

//nolint:ireturn // returning redis.UniversalClient keeps client selection flexible.
func newClusterClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	addrs := normalizeAddrs(cfg.ClusterNodes)
	opts := &redis.ClusterOptions{Password: cfg.Password}

	if len(addrs) == 0 {
		fallback, err := clusterFallbackFromURI(cfg.URI, cfg.Password)
		if err != nil {
			return nil, "", err
		}
		if fallback.addr != "" {
			addrs = []string{fallback.addr}
			opts.Username = fallback.username
			opts.Password = fallback.password
			opts.TLSConfig = fallback.tls
		}
	}
	if len(addrs) == 0 {
		return nil, "", errors.New("redis cluster configuration requires at least one address")
	}

	opts.Addrs = addrs
	return redis.NewClusterClient(opts), "cluster:" + strings.Join(addrs, ","), nil
}

//nolint:ireturn // returning redis.UniversalClient keeps client selection flexible.
func newSentinelClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	nodes := normalizeAddrs(cfg.SentinelNodes)
	if len(nodes) == 0 {
		return nil, "", errors.New("redis sentinel configuration requires at least one sentinel node")
	}

	client := redis.NewFailoverClient(&redis.FailoverOptions{
		MasterName:       cfg.SentinelMasterName,
		SentinelAddrs:    nodes,
		Password:         cfg.Password,
		SentinelPassword: cfg.SentinelPassword,
	})
	return client, "sentinel:" + cfg.SentinelMasterName, nil
}

//nolint:ireturn // returning redis.UniversalClient keeps client selection flexible.
func newDirectClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return nil, "", errors.New("redis direct configuration requires a URI")
	}

	if isRedisURL(uri) {
		opt, err := redis.ParseURL(uri)
		if err != nil {
			return nil, "", fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), uri, nil
	}
	return redis.NewClient(&redis.Options{Addr: uri, Password: cfg.Password}), uri, nil
}

func normalizeAddrs(raw []string) []string {
	result := make([]string, 0, len(raw))
	for _, addr := range raw {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

type clusterSeed struct {
	addr     string
	username string
	password string
	tls      *tls.Config
}

// clusterFallbackFromURI seeds a cluster client from REDIS_URI when no nodes are listed.
func clusterFallbackFromURI(uri, defaultPassword string) (clusterSeed, error) {
	seed := clusterSeed{password: defaultPassword}
	trimmed := strings.TrimSpace(uri)
	if trimmed == "" {
		return seed, nil
	}
	if !isRedisURL(trimmed) {
		seed.addr = trimmed
		return seed, nil
	}

	opt, err := redis.ParseURL(trimmed)
	if err != nil {
		return seed, fmt.Errorf("parse redis cluster url: %w", err)
	}
	seed.addr = opt.Addr
	seed.username = opt.Username
	seed.tls = opt.TLSConfig
	if opt.Password != "" {
		seed.password = opt.Password
	}
	return seed, nil
}

func isRedisURL(value string) bool {
	return strings.HasPrefix(value, "redis://") || strings.HasPrefix(value, "rediss://")
}

// RunMigrations applies the audit schema.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	applied, err := data.RunMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed", "applied", applied)
	}
	return nil
}
