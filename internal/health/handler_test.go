package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func serve(h *Handler, target string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", h.Live)
	r.GET("/health/ready", h.Ready)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func redisCheck(client *redis.Client) Checker {
	return CheckFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() })
}

func TestReady(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := NewHandler(map[string]Checker{
		"postgres": CheckFunc(func(context.Context) error { return nil }),
		"redis":    redisCheck(client),
	}, nil)

	w := serve(h, "/health/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"up"`)

	mr.Close()
	w = serve(h, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"down"`)
	assert.Contains(t, w.Body.String(), `"postgres":"up"`)
}

func TestLiveIgnoresDependencies(t *testing.T) {
	h := NewHandler(map[string]Checker{
		"postgres": CheckFunc(func(context.Context) error { return errors.New("down") }),
	}, nil)
	assert.Equal(t, http.StatusOK, serve(h, "/health").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(h, "/health/ready").Code)
}
