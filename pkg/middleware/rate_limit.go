package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/types"
)

const (
	maxLimiterEntries = 10000
	limiterIdleTTL    = 10 * time.Minute
)

// RateLimitMiddleware 基于令牌桶的限流，维度见 configs.RateLimitConfig.Key.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	keyMode := strings.ToLower(strings.TrimSpace(cfg.Key))

	if keyMode == "global" || keyMode == "" {
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

		return func(c *gin.Context) {
			if !limiter.Allow() {
				tooManyRequests(c)
				return
			}

			c.Next()
		}
	}

	// 闲置的 limiter 随 TTL 淘汰，数量有上限
	limiters := expirable.NewLRU[string, *rate.Limiter](maxLimiterEntries, nil, limiterIdleTTL)

	var mu sync.Mutex

	getLimiter := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		if l, ok := limiters.Get(key); ok {
			return l
		}

		l := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
		limiters.Add(key, l)

		return l
	}

	header := ""
	if strings.HasPrefix(keyMode, "header:") {
		header = strings.TrimPrefix(keyMode, "header:")
	}

	return func(c *gin.Context) {
		key := ""
		if header != "" {
			key = c.GetHeader(header)
		}

		if key == "" {
			key = clientIP(c)
		}

		if !getLimiter(key).Allow() {
			tooManyRequests(c)
			return
		}

		c.Next()
	}
}

func tooManyRequests(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, types.ErrorResponse{Error: "rate limit exceeded"})
}

func clientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}

	return host
}
