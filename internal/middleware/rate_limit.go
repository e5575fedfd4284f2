package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"cedra_shipping/internal/logger"
)

const quoteWindow = 1 * time.Minute

// QuoteRateLimit limite les demandes de tarif par IP sur une fenêtre d'une minute.
// limit <= 0 désactive le contrôle. Redis en panne : la requête passe.
func QuoteRateLimit(rdb *redis.Client, limit int, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		key := "quote_requests:" + c.ClientIP()

		n, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Warn("⚠️ Rate limit indisponible", "error", err)
			c.Next()
			return
		}
		// la fenêtre démarre à la première requête
		if n == 1 {
			rdb.Expire(ctx, key, quoteWindow)
		}

		count := int(n)
		remaining := limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > limit {
			ttl := rdb.TTL(ctx, key).Val()
			if ttl <= 0 {
				ttl = quoteWindow
			}
			c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de requêtes. Réessayez dans %d secondes", int(ttl.Seconds())),
				"retry_after": int(ttl.Seconds()),
			})
			return
		}
		c.Next()
	}
}
