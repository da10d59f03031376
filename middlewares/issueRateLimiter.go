package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// IssueLimit configures the per-student submission limiter.
type IssueLimit struct {
	Prefix string
	Limit  int
	Window time.Duration
}

// IssueRateLimiter caps how many issues each caller may submit per window.
// The counter for a caller starts on their first submission and expires a
// full window later. A nil client disables the limiter.
func IssueRateLimiter(rdb *redis.Client, cfg IssueLimit, log *zap.Logger) gin.HandlerFunc {
	if rdb == nil || cfg.Limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.Window <= 0 {
		cfg.Window = 24 * time.Hour
	}

	return func(c *gin.Context) {
		userID := CurrentIdentity(c).UserID
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token, authorization denied"})
			return
		}

		ctx := c.Request.Context()
		// Create individual key for each user
		userKey := cfg.Prefix + ":" + userID

		count, err := rdb.Incr(ctx, userKey).Result()
		if err != nil {
			log.Error("rate limiter increment failed", zap.String("key", userKey), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}

		// Set TTL only for the first increment
		if count == 1 {
			if err := rdb.Expire(ctx, userKey, cfg.Window).Err(); err != nil {
				log.Error("rate limiter expire failed", zap.String("key", userKey), zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
				return
			}
		}

		if count > int64(cfg.Limit) {
			retryAfter, _ := rdb.TTL(ctx, userKey).Result()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message":     "Issue limit reached, try again later",
				"retry_after": retryAfter.Seconds(),
			})
			return
		}

		c.Next()
	}
}
