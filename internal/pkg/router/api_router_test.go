package router

import (
	"io"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/CertiFox/internal/pkg/cache"
	"github.com/ManuelReschke/CertiFox/internal/pkg/env"
)

func TestCacheAddress(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("secret")
	cache.SetClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr(), Password: "secret"}))
	t.Cleanup(func() { cache.SetClient(nil) })

	host, port, password := cacheAddress()
	assert.Equal(t, mr.Host(), host)
	wantPort, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	assert.Equal(t, wantPort, port)
	assert.Equal(t, "secret", password)
}

func TestApiPingAndLimit(t *testing.T) {
	env.Env = map[string]string{"API_RATE_LIMIT": "2"}
	t.Cleanup(func() { env.Env = map[string]string{} })

	// unreachable cache keeps the limiter in memory
	cache.SetClient(goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"}))
	t.Cleanup(func() { cache.SetClient(nil) })

	app := fiber.New()
	NewApiRouter().InstallRouter(app)

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/", nil), -1)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"message":"Hello from api"}`, string(body))
	}

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}
