package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exquiz-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator struct{}

func (stubValidator) ValidateToken(tokenStr string) (*service.Claims, error) {
	if tokenStr != "good" {
		return nil, errors.New("bad token")
	}
	return &service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ID: "jti-1"},
		UserID:           7,
	}, nil
}

type stubRevocations struct {
	revoked map[string]bool
	err     error
}

func (s stubRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	return s.revoked[jti], s.err
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireUserJWT(t *testing.T) {
	r := gin.New()
	r.GET("/me", RequireUserJWT(stubValidator{}), func(c *gin.Context) {
		c.String(http.StatusOK, "%d", GetClaims(c).UserID)
	})

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, "TOKEN_REQUIRED"},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, "TOKEN_REQUIRED"},
		{"invalid", "Bearer bad", http.StatusUnauthorized, "TOKEN_INVALID"},
		{"valid", "Bearer good", http.StatusOK, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(r, req)
			if w.Code != tt.status || !strings.Contains(w.Body.String(), tt.body) {
				t.Fatalf("got %d %s, want %d containing %q", w.Code, w.Body.String(), tt.status, tt.body)
			}
		})
	}
}

func TestRequireWSAuthAcceptsQueryToken(t *testing.T) {
	r := gin.New()
	r.GET("/ws", RequireWSAuth(stubValidator{}), func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := serve(r, httptest.NewRequest(http.MethodGet, "/ws?token=good", nil)); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/ws", nil)); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRejectRevokedTokens(t *testing.T) {
	tests := []struct {
		name   string
		checks stubRevocations
		status int
	}{
		{"active", stubRevocations{}, http.StatusOK},
		{"revoked", stubRevocations{revoked: map[string]bool{"jti-1": true}}, http.StatusUnauthorized},
		{"store down", stubRevocations{err: errors.New("redis down")}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/me", RequireUserJWT(stubValidator{}), RejectRevokedTokens(tt.checks), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", "Bearer good")
			if w := serve(r, req); w.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, w.Code)
			}
		})
	}
}

func TestRateLimiterPerCaller(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	r := gin.New()
	r.POST("/submit", NewRateLimiter(rdb, "submit", 1, time.Minute).Middleware(), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(r, req).Code
	}

	if code := send("10.0.0.1"); code != http.StatusCreated {
		t.Fatalf("first request: %d", code)
	}
	if code := send("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d", code)
	}
	if code := send("10.0.0.2"); code != http.StatusCreated {
		t.Fatalf("other caller: %d", code)
	}
}

func TestRateLimiterFailsOpen(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	r := gin.New()
	r.POST("/submit", NewRateLimiter(rdb, "submit", 1, time.Minute).Middleware(), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	for i := 0; i < 3; i++ {
		if w := serve(r, httptest.NewRequest(http.MethodPost, "/submit", nil)); w.Code != http.StatusCreated {
			t.Fatalf("request %d: %d", i, w.Code)
		}
	}
}

func TestBrotliCompressesLargeBodies(t *testing.T) {
	large := strings.Repeat("question text ", 500)

	r := gin.New()
	r.Use(Brotli())
	r.GET("/large", func(c *gin.Context) { c.String(http.StatusOK, "%s", large) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/large", nil)
	req.Header.Set("Accept-Encoding", "gzip, br;q=1.0")
	w := serve(r, req)
	if w.Header().Get("Content-Encoding") != "br" {
		t.Fatalf("expected br encoding, got %q", w.Header().Get("Content-Encoding"))
	}
	plain, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(plain) != large {
		t.Fatal("decompressed body differs")
	}

	req = httptest.NewRequest(http.MethodGet, "/small", nil)
	req.Header.Set("Accept-Encoding", "br")
	w = serve(r, req)
	if w.Header().Get("Content-Encoding") != "" || w.Body.String() != "ok" {
		t.Fatalf("short body should pass through, got %q %q", w.Header().Get("Content-Encoding"), w.Body.String())
	}

	w = serve(r, httptest.NewRequest(http.MethodGet, "/large", nil))
	if w.Header().Get("Content-Encoding") != "" || w.Body.String() != large {
		t.Fatal("client without br support got a compressed body")
	}
}
