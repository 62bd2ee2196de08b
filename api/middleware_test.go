package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func newTestRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw...)
	router.Any("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	return router
}

func TestCORS(t *testing.T) {
	router := newTestRouter(CORS())

	t.Run("preflight returns no content", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/test", nil)
		req.Header.Set("Origin", "https://example.com")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
	})

	t.Run("regular request passes through with headers", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRequestSizeLimit(t *testing.T) {
	tests := []struct {
		name       string
		middleware gin.HandlerFunc
		method     string
		bodySize   int
		wantStatus int
	}{
		{
			name:       "body under default limit",
			middleware: RequestSizeLimit(),
			method:     http.MethodPost,
			bodySize:   100,
			wantStatus: http.StatusOK,
		},
		{
			name:       "body at default limit",
			middleware: RequestSizeLimit(),
			method:     http.MethodPost,
			bodySize:   1024 * 1024,
			wantStatus: http.StatusOK,
		},
		{
			name:       "body over default limit",
			middleware: RequestSizeLimit(),
			method:     http.MethodPost,
			bodySize:   1024*1024 + 1,
			wantStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:       "body over custom limit",
			middleware: RequestSizeLimitWithSize(512),
			method:     http.MethodPut,
			bodySize:   1024,
			wantStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:       "GET is not limited",
			middleware: RequestSizeLimitWithSize(512),
			method:     http.MethodGet,
			bodySize:   1024,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(tt.middleware)

			w := httptest.NewRecorder()
			body := strings.Repeat("a", tt.bodySize)
			req := httptest.NewRequest(tt.method, "/test", strings.NewReader(body))
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusRequestEntityTooLarge {
				assert.Contains(t, w.Body.String(), "too large")
			}
		})
	}
}

func TestPerClientRateLimitBurst(t *testing.T) {
	rateLimiters := &sync.Map{}
	cleanupStop := make(chan struct{})
	defer close(cleanupStop)

	router := newTestRouter(PerClientRateLimit(rateLimiters, cleanupStop, &sync.Once{}, 2, 3))

	var ok, blocked int
	for i := 0; i < 6; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "127.0.0.1:12345"
		router.ServeHTTP(w, req)

		switch w.Code {
		case http.StatusOK:
			ok++
		case http.StatusTooManyRequests:
			blocked++
		}
	}

	// Burst of 3 admits the first three back-to-back requests.
	assert.GreaterOrEqual(t, ok, 3)
	assert.Greater(t, blocked, 0)
}

func TestPerClientRateLimitRefill(t *testing.T) {
	rateLimiters := &sync.Map{}
	cleanupStop := make(chan struct{})
	defer close(cleanupStop)

	// 100 rps refills 2.5 tokens per 25ms gap, so spaced requests never
	// outrun the limiter.
	router := newTestRouter(PerClientRateLimit(rateLimiters, cleanupStop, &sync.Once{}, 100, 2))

	for i := 0; i < 5; i++ {
		if i > 0 {
			time.Sleep(25 * time.Millisecond)
		}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "127.0.0.1:12345"
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "request %d", i)
	}
}

func TestPerClientRateLimitIsolatesClients(t *testing.T) {
	rateLimiters := &sync.Map{}
	cleanupStop := make(chan struct{})
	defer close(cleanupStop)

	router := newTestRouter(PerClientRateLimit(rateLimiters, cleanupStop, &sync.Once{}, 2, 2))

	// Exhaust the first client's budget.
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "127.0.0.1:12345"
		router.ServeHTTP(w, req)
	}

	// A different client has its own limiter.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "192.168.1.1:54321"
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCleanupOldRateLimiters(t *testing.T) {
	rateLimiters := &sync.Map{}
	cleanupStop := make(chan struct{})

	rateLimiters.Store("203.0.113.9", &clientLimiter{
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
		lastSeen: time.Now().Add(-2 * time.Hour),
	})

	go cleanupOldRateLimiters(rateLimiters, cleanupStop)
	time.Sleep(10 * time.Millisecond)
	close(cleanupStop)

	// The sweep interval has not elapsed yet, the stale entry is still
	// present and the goroutine shut down cleanly.
	_, present := rateLimiters.Load("203.0.113.9")
	assert.True(t, present)
}
