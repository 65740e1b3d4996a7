package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/alphaforge/pkg/config"
	"github.com/wonny/alphaforge/pkg/logger"
)

// defaultPingTimeout applies when REDIS_PING_TIMEOUT is unset
const defaultPingTimeout = 2 * time.Second

// Client backs the screening result cache and the source rate limiters.
// A disabled client turns every cache/limiter call into a no-op.
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb     *redis.Client
	enabled bool
	addr    string
}

// New connects to Redis. It never fails: when Redis is turned off or the
// startup ping does not answer within PingTimeout, a disabled client is returned.
func New(cfg *config.Config, log *logger.Logger) *Client {
	log = log.WithField("module", "redis")

	if !cfg.Redis.Enabled {
		log.Debug("Redis disabled, result cache and shared rate limits are off")
		return &Client{}
	}

	addr := fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port)
	timeout := cfg.Redis.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		// 캐시/분산 rate limit 없이 계속 진행
		log.WithError(err).WithField("addr", addr).Warn("Redis unavailable, continuing without cache")
		rdb.Close()
		return &Client{addr: addr}
	}

	log.WithField("addr", addr).Info("Connected to Redis")

	return &Client{
		rdb:     rdb,
		enabled: true,
		addr:    addr,
	}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Enabled returns whether Redis is enabled
func (c *Client) Enabled() bool {
	return c.enabled
}

// Addr returns the configured address (empty when Redis is turned off)
func (c *Client) Addr() string {
	return c.addr
}

// Ping checks the connection; a disabled client reports no error
func (c *Client) Ping(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Redis returns the underlying redis client for advanced usage
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
