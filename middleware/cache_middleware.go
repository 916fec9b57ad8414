package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/StartUpFoundee/mantra-verse-counter-32/cache"
	"github.com/StartUpFoundee/mantra-verse-counter-32/models"
	"github.com/StartUpFoundee/mantra-verse-counter-32/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var now = time.Now

// CacheMiddleware caches successful GET responses per account and local
// day, so views derived from "today" roll over at midnight in loc.
func CacheMiddleware(store cache.Store, duration time.Duration, loc *time.Location) gin.HandlerFunc {
	if loc == nil {
		loc = time.Local
	}
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || duration <= 0 {
			c.Next()
			return
		}

		accountID := "anonymous"
		if account, ok := CurrentAccount(c); ok {
			accountID = account.ID
		}
		day := now().In(loc).Format(models.DateLayout)
		cacheKey := fmt.Sprintf("cache:%s:%s:%s?%s", accountID, day, c.Request.URL.Path, c.Request.URL.RawQuery)
		ctx := c.Request.Context()

		var cachedResponse CachedResponse
		err := cache.GetJSON(ctx, store, cacheKey, &cachedResponse)
		if err == nil {
			utils.Logger.Debug("cache_hit", zap.String("key", cacheKey))
			for key, values := range cachedResponse.Headers {
				for _, value := range values {
					c.Header(key, value)
				}
			}
			c.Header("X-Cache", "HIT")
			c.Data(cachedResponse.Status, cachedResponse.ContentType, cachedResponse.Body)
			c.Abort()
			return
		}
		if !errors.Is(err, cache.ErrMiss) {
			utils.Logger.Warn("cache_get_failed", zap.String("key", cacheKey), zap.Error(err))
		}

		utils.Logger.Debug("cache_miss", zap.String("key", cacheKey))
		c.Header("X-Cache", "MISS")

		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		if c.Writer.Status() != http.StatusOK {
			return
		}
		cachedResp := CachedResponse{
			Status:      c.Writer.Status(),
			ContentType: c.Writer.Header().Get("Content-Type"),
			Body:        blw.body.Bytes(),
			Headers:     c.Writer.Header().Clone(),
		}
		if err := cache.SetJSON(ctx, store, cacheKey, cachedResp, duration); err != nil {
			utils.Logger.Warn("cache_set_failed", zap.Error(err), zap.String("key", cacheKey))
		}
	}
}

type CachedResponse struct {
	Status      int         `json:"status"`
	ContentType string      `json:"content_type"`
	Body        []byte      `json:"body"`
	Headers     http.Header `json:"headers"`
}

type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyLogWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// InvalidateAccountCache drops every cached response of an account.
func InvalidateAccountCache(ctx context.Context, store cache.Store, accountID string) {
	pattern := fmt.Sprintf("cache:%s:*", accountID)
	if err := store.DeletePattern(ctx, pattern); err != nil {
		utils.Logger.Warn("cache_invalidate_failed", zap.String("account_id", accountID), zap.Error(err))
		return
	}
	utils.Logger.Debug("account_cache_invalidated", zap.String("account_id", accountID))
}

// RateLimitMiddleware allows maxRequests per client IP and window.
func RateLimitMiddleware(store cache.Store, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxRequests <= 0 {
			c.Next()
			return
		}
		clientIP := c.ClientIP()
		key := fmt.Sprintf("rate_limit:%s:%s", c.FullPath(), clientIP)

		count, err := store.IncrementCounter(c.Request.Context(), key, window)
		if err != nil {
			utils.Logger.Error("rate_limit_error", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(0, maxRequests-int(count))))

		if count > int64(maxRequests) {
			utils.Logger.Warn("rate_limit_exceeded",
				zap.String("ip", clientIP),
				zap.Int64("count", count),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again later"})
			return
		}

		c.Next()
	}
}
