package config

// Redis backs the admin login rate limiter. If the server cannot be reached
// at startup the client is nil and the limiter lets every request through.

import (
	"context"
	"crypto/tls"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the connection parameters for Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TLS      bool

	// InsecureTLS skips server certificate verification. Only for
	// self-signed development servers.
	InsecureTLS bool
}

// LoadRedisConfig reads:
//
//	REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//	REDIS_ADDR – host:port shorthand, used when host/port are not both set
//	REDIS_PASSWORD – optional password
//	REDIS_DB – database number (default 0)
//	REDIS_TLS – enable TLS when "true" or "1"
//	REDIS_TLS_INSECURE – skip certificate verification when "true" or "1"
func LoadRedisConfig() RedisConfig {
	host := os.Getenv("REDIS_HOST")
	port := os.Getenv("REDIS_PORT")
	addr := os.Getenv("REDIS_ADDR")
	if host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	dbNum := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if n, err := strconv.Atoi(dbStr); err == nil {
			dbNum = n
		}
	}
	return RedisConfig{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DB:          dbNum,
		TLS:         flagOn("REDIS_TLS"),
		InsecureTLS: flagOn("REDIS_TLS_INSECURE"),
	}
}

func flagOn(k string) bool {
	v := os.Getenv(k)
	return strings.EqualFold(v, "true") || v == "1"
}

// TLSConfig returns nil when TLS is off. Otherwise the server certificate is
// verified against the host part of Addr unless InsecureTLS is set.
func (c RedisConfig) TLSConfig() *tls.Config {
	if !c.TLS {
		return nil
	}
	host := c.Addr
	if h, _, err := net.SplitHostPort(c.Addr); err == nil {
		host = h
	}
	return &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: c.InsecureTLS, //nolint:gosec
		MinVersion:         tls.VersionTLS12,
	}
}

// NewRedisClient connects with cfg and pings the server with a short
// timeout. It returns nil when the server is unreachable.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:      cfg.Addr,
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: cfg.TLSConfig(),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
