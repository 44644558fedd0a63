package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// 短窗口 200ms，最多 2 次
	router := gin.New()
	router.Use(RateLimit(2, 200*time.Millisecond))
	router.GET("/export/csv", func(c *gin.Context) {
		c.String(200, "ok")
	})

	doReq := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/export/csv", nil)
		req.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	// 同一 IP 连续 3 次，第 3 次应返回 429
	w1 := doReq("192.168.1.1")
	w2 := doReq("192.168.1.1")
	w3 := doReq("192.168.1.1")

	assert.Equal(t, 200, w1.Code)
	assert.Equal(t, 200, w2.Code)
	assert.Equal(t, http.StatusTooManyRequests, w3.Code)
	assert.Contains(t, w3.Body.String(), "频繁")
	assert.Contains(t, w3.Body.String(), `"code":429`)

	// 不同 IP 互不影响
	assert.Equal(t, 200, doReq("192.168.1.2").Code)

	// 窗口过后恢复
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, 200, doReq("192.168.1.1").Code)
}

func TestWithin(t *testing.T) {
	now := time.Now()
	ts := []time.Time{now.Add(-3 * time.Second), now.Add(-time.Second), now}
	kept := within(ts, now.Add(-2*time.Second))
	assert.Len(t, kept, 2)
	assert.Equal(t, now, kept[1])
}

func TestLimiter_SweepsIdleClients(t *testing.T) {
	l := newLimiter(1, time.Minute)
	start := time.Now()

	assert.True(t, l.allow("10.0.0.1", start))
	assert.True(t, l.allow("10.0.0.2", start))
	assert.False(t, l.allow("10.0.0.1", start.Add(time.Second)))
	assert.Len(t, l.clients, 2)

	// 窗口过后，下一次请求顺带清理空闲 IP
	assert.True(t, l.allow("10.0.0.3", start.Add(2*time.Minute)))
	assert.Len(t, l.clients, 1)
	assert.Contains(t, l.clients, "10.0.0.3")
}
