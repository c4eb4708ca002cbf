package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"contest-core/config"
	"contest-core/pkg/jwt"
	"contest-core/pkg/redis"
	"contest-core/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestManager() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "middleware-test-secret-0123456789",
		Issuer:         "contest-accounts",
		AccessTokenTTL: 15 * time.Minute,
	})
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return redis.NewFromUniversal(rdb, zap.NewNop())
}

func authedEngine(mgr *jwt.Manager, rdb *redis.Client, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(JWTAuth(mgr, rdb))
	handlers := append(extra, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(ContextUserID), "role": c.GetString(ContextRole)})
	})
	r.GET("/ping", handlers...)
	return r
}

func doGet(r *gin.Engine, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ping", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

// ── JWTAuth ──

func TestJWTAuth(t *testing.T) {
	mgr := newTestManager()
	valid, err := mgr.IssueAccessToken("u-1", jwt.RoleContestant)
	if err != nil {
		t.Fatalf("签发 Token 失败: %v", err)
	}

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"缺少认证头", "", 401},
		{"无效 Token", "not-a-jwt", 401},
		{"有效 Token", valid, 200},
	}

	r := authedEngine(mgr, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := doGet(r, tt.token); w.Code != tt.wantStatus {
				t.Errorf("期望 %d，实际 %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestJWTAuth_Blacklisted(t *testing.T) {
	mgr := newTestManager()
	rdb := newTestRedis(t)

	token, _ := mgr.IssueAccessToken("u-1", jwt.RoleContestant)
	claims, err := mgr.ParseToken(token)
	if err != nil {
		t.Fatalf("解析 Token 失败: %v", err)
	}

	r := authedEngine(mgr, rdb)
	if w := doGet(r, token); w.Code != http.StatusOK {
		t.Fatalf("加入黑名单前应放行，实际 %d", w.Code)
	}

	if err := rdb.BlacklistToken(context.Background(), claims.ID, time.Minute); err != nil {
		t.Fatalf("加入黑名单失败: %v", err)
	}
	if w := doGet(r, token); w.Code != http.StatusUnauthorized {
		t.Errorf("黑名单 Token 应被拒绝，实际 %d", w.Code)
	}
}

// ── RoleAuth ──

func TestRoleAuth(t *testing.T) {
	mgr := newTestManager()
	admin, _ := mgr.IssueAccessToken("a-1", jwt.RoleAdmin)
	contestant, _ := mgr.IssueAccessToken("u-1", jwt.RoleContestant)

	r := authedEngine(mgr, nil, RoleAuth(jwt.RoleAdmin))

	if w := doGet(r, admin); w.Code != http.StatusOK {
		t.Errorf("管理员应放行，实际 %d", w.Code)
	}
	if w := doGet(r, contestant); w.Code != http.StatusForbidden {
		t.Errorf("参赛者应被拒绝，实际 %d", w.Code)
	}
}

// ── RateLimit ──

func TestRateLimit_PerUser(t *testing.T) {
	mgr := newTestManager()
	rdb := newTestRedis(t)

	alice, _ := mgr.IssueAccessToken("alice", jwt.RoleContestant)
	bob, _ := mgr.IssueAccessToken("bob", jwt.RoleContestant)

	r := authedEngine(mgr, rdb, RateLimit(rdb, 2, time.Minute))

	for i := 0; i < 2; i++ {
		if w := doGet(r, alice); w.Code != http.StatusOK {
			t.Fatalf("第 %d 次请求应放行，实际 %d", i+1, w.Code)
		}
	}
	if w := doGet(r, alice); w.Code != http.StatusTooManyRequests {
		t.Errorf("超出限额应返回 429，实际 %d", w.Code)
	}
	if w := doGet(r, bob); w.Code != http.StatusOK {
		t.Errorf("其他用户不受影响，实际 %d", w.Code)
	}
}

func TestRateLimit_NilRedisPassesThrough(t *testing.T) {
	mgr := newTestManager()
	token, _ := mgr.IssueAccessToken("alice", jwt.RoleContestant)

	r := authedEngine(mgr, nil, RateLimit(nil, 1, time.Minute))
	for i := 0; i < 3; i++ {
		if w := doGet(r, token); w.Code != http.StatusOK {
			t.Fatalf("Redis 不可用时应放行，实际 %d", w.Code)
		}
	}
}

// ── RequestID / SecurityHeaders ──

func TestRequestIDAndSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), SecurityHeaders())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))

	if w.Body.Len() == 0 {
		t.Error("期望生成请求 ID")
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control 期望 no-store，实际 %q", got)
	}
}

func TestRequestID_CarriedInErrorBody(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/missing", func(c *gin.Context) {
		response.NotFound(c, 20001, "比赛不存在")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/missing", nil)
	req.Header.Set("X-Request-ID", "trace-123")
	r.ServeHTTP(w, req)

	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if resp.RequestID != "trace-123" {
		t.Errorf("期望 request_id=trace-123，实际 %q", resp.RequestID)
	}
	if got := w.Header().Get("X-Request-ID"); got != "trace-123" {
		t.Errorf("响应头应回写调用方的 X-Request-ID，实际 %q", got)
	}
}
