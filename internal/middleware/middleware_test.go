package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilantra/furniture-api/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth map[string]model.Principal

func (f fakeAuth) Authenticate(_ context.Context, token string) (model.Principal, error) {
	p, ok := f[token]
	if !ok {
		return model.Principal{}, errors.New("bad token")
	}
	return p, nil
}

var (
	adminP  = model.Principal{ID: uuid.New(), Role: model.RoleAdmin}
	vendorP = model.Principal{ID: uuid.New(), Role: model.RoleVendor}
	userP   = model.Principal{ID: uuid.New(), Role: model.RoleUser}
	tokens  = fakeAuth{"admin": adminP, "vendor": vendorP, "user": userP}
)

func whoami(c *gin.Context) {
	p, ok := OptionalPrincipal(c)
	c.JSON(http.StatusOK, gin.H{"authenticated": ok, "id": p.ID.String()})
}

func serve(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens), whoami)

	assert.Equal(t, http.StatusUnauthorized, serve(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/me", "forged").Code)

	w := serve(r, "/me", "user")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, userP.ID.String(), body["id"])

	assert.Equal(t, http.StatusOK, serve(r, "/me?token=admin", "").Code)
}

func TestOptionalAuth(t *testing.T) {
	r := gin.New()
	r.GET("/me", OptionalAuth(tokens), whoami)

	for token, want := range map[string]bool{"": false, "forged": false, "vendor": true} {
		w := serve(r, "/me", token)
		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, want, body["authenticated"], token)
	}
}

func TestRequireRole(t *testing.T) {
	r := gin.New()
	r.GET("/vendor", AuthMiddleware(tokens), RequireRole(model.RoleVendor), whoami)
	r.GET("/admin", AuthMiddleware(tokens), RequireRole(model.RoleAdmin), whoami)

	assert.Equal(t, http.StatusOK, serve(r, "/vendor", "vendor").Code)
	assert.Equal(t, http.StatusOK, serve(r, "/vendor", "admin").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, "/vendor", "user").Code)

	assert.Equal(t, http.StatusOK, serve(r, "/admin", "admin").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, "/admin", "vendor").Code)
}

func TestRecovery(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, dev := range []bool{false, true} {
		r := gin.New()
		r.Use(Recovery(log, dev))
		r.GET("/boom", func(*gin.Context) { panic("kaboom") })

		w := serve(r, "/boom", "")
		require.Equal(t, http.StatusInternalServerError, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "kaboom", body["error"])
		_, hasStack := body["stack"]
		assert.Equal(t, dev, hasStack)
	}
}

func TestRateLimit_NoRedisPassesThrough(t *testing.T) {
	r := gin.New()
	r.GET("/login", RateLimit(nil, "login", 1, time.Minute, slog.Default()), whoami)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(r, "/login", "").Code)
	}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	mr, client := newTestRedis(t)
	r := gin.New()
	r.GET("/login", RateLimit(client, "login", 2, time.Minute, slog.Default()), whoami)

	assert.Equal(t, http.StatusOK, serve(r, "/login", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, "/login", "").Code)
	w := serve(r, "/login", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, serve(r, "/login", "").Code)
}

func TestRateLimit_RepairsCounterWithoutExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	r := gin.New()
	r.GET("/login", RateLimit(client, "login", 1, time.Minute, slog.Default()), whoami)

	w := serve(r, "/login", "")
	require.Equal(t, http.StatusOK, w.Code)
	keys := mr.Keys()
	require.Len(t, keys, 1)

	// Simulate an EXPIRE that never landed after the first INCR.
	mr.Del(keys[0])
	require.NoError(t, mr.Set(keys[0], "5"))
	require.Zero(t, mr.TTL(keys[0]))

	assert.Equal(t, http.StatusTooManyRequests, serve(r, "/login", "").Code)
	assert.Greater(t, mr.TTL(keys[0]), time.Duration(0))

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, serve(r, "/login", "").Code)
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "1", formatSeconds(200*time.Millisecond))
	assert.Equal(t, "60", formatSeconds(time.Minute))
}
