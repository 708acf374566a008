package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/fly-starter/internal/config"
	"github.com/iliyamo/fly-starter/internal/utils"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func limitCfg(capacity int, strategy string) config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       capacity,
		RefillTokens:   1,
		RefillInterval: 12 * time.Second,
		TTL:            10 * time.Minute,
		KeyStrategy:    strategy,
		Prefix:         "rl",
	}
}

func TestTokenBucketPassesThroughWithoutRedis(t *testing.T) {
	e := echo.New()
	e.POST("/admin/login/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/login/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestTokenBucketBlocksWhenEmpty(t *testing.T) {
	mr, rdb := newRedis(t)
	e := echo.New()
	e.POST("/admin/login/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		NewTokenBucket(limitCfg(2, "ip_route"), rdb))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/admin/login/", nil)
		req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := send()
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	rec = send()
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Empty(t, rec.Header().Get("Retry-After"))

	rec = send()
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "12", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"too_many_requests","message":"rate limit exceeded","retry_after":12}`, rec.Body.String())

	assert.True(t, mr.Exists("rl:ip:10.0.0.7:route:POST /admin/login/"))
	assert.Equal(t, 10*time.Minute, mr.TTL("rl:ip:10.0.0.7:route:POST /admin/login/"))
}

func TestTokenBucketFailsOpenOnRedisError(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()
	e := echo.New()
	e.POST("/admin/login/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		NewTokenBucket(limitCfg(1, "ip"), rdb))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/login/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestTokenBucketKeysByAdminBehindJWT(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := limitCfg(1, "user")
	cfg.Debug = true
	e := echo.New()
	e.GET("/admin/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		JWTAuth("secret"), NewTokenBucket(cfg, rdb))

	bearer := func(sub string) string {
		tok, err := utils.NewAccessToken("secret", sub, "admin", 5)
		require.NoError(t, err)
		return "Bearer " + tok.Token
	}
	alice, bob := bearer("alice"), bearer("bob")

	rec := get(e, alice)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "rl:user:alice", rec.Header().Get("X-RateLimit-Key"))

	rec = get(e, alice)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = get(e, bob)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "rl:user:bob", rec.Header().Get("X-RateLimit-Key"))
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/admin/login/", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/admin/login/")

	cases := map[string]string{
		"ip":       "rl:ip:10.0.0.7",
		"user":     "rl:user:anon",
		"route":    "rl:route:POST /admin/login/",
		"ip_route": "rl:ip:10.0.0.7:route:POST /admin/login/",
		"":         "rl:ip:10.0.0.7:user:anon:route:POST /admin/login/",
	}
	for strategy, want := range cases {
		cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}
		assert.Equal(t, want, buildRateKey(cfg, c), strategy)
	}

	c.Set(ContextUser, "root")
	assert.Equal(t, "rl:ip:10.0.0.7:user:root",
		buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user"}, c))
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 0, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(1))
	assert.Equal(t, 12, retryAfterSeconds(11500))
	assert.Equal(t, 0, retryAfterSeconds(-20))
}
