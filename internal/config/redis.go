package config

// Redis backs the rate limiter and the policy response cache.  When the
// server cannot be reached at startup NewRedisClient returns nil and both
// middlewares degrade (in-process limiter, no cache).

import (
	"context"
	"crypto/tls"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a client from REDIS_URL when set, otherwise from
// REDIS_ADDR (or REDIS_HOST + REDIS_PORT), REDIS_PASSWORD, REDIS_DB and
// REDIS_TLS.  It returns nil if the ping fails.
func NewRedisClient() *redis.Client {
	var opts *redis.Options
	if u := os.Getenv("REDIS_URL"); u != "" {
		parsed, err := redis.ParseURL(u)
		if err != nil {
			return nil
		}
		opts = parsed
	} else {
		addr := getenv("REDIS_ADDR", "localhost:6379")
		if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
			addr = host + ":" + port
		}
		opts = &redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		}
		if v := os.Getenv("REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
