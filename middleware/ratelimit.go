package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimit 按客户端 IP 的滑动窗口限流中间件
// 每个 IP 在 window 内最多 limit 次请求，超过则返回 429
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	l := newLimiter(limit, window)
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP(), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "请求过于频繁，请稍后再试",
			})
			return
		}
		c.Next()
	}
}

// limiter 记录各 IP 的请求时间戳，过期数据在请求路径上按窗口周期清理
type limiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	clients   map[string][]time.Time
	lastSweep time.Time
}

func newLimiter(limit int, window time.Duration) *limiter {
	return &limiter{
		limit:   limit,
		window:  window,
		clients: make(map[string][]time.Time),
	}
}

func (l *limiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(cutoff)
		l.lastSweep = now
	}

	ts := within(l.clients[ip], cutoff)
	if len(ts) >= l.limit {
		l.clients[ip] = ts
		return false
	}
	l.clients[ip] = append(ts, now)
	return true
}

// sweep 删除窗口内已无请求的 IP
func (l *limiter) sweep(cutoff time.Time) {
	for ip, ts := range l.clients {
		if ts = within(ts, cutoff); len(ts) == 0 {
			delete(l.clients, ip)
		} else {
			l.clients[ip] = ts
		}
	}
}

// within 原地保留 cutoff 之后的时间戳
func within(ts []time.Time, cutoff time.Time) []time.Time {
	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
