package middleware

import (
	"fmt"
	"time"

	"github.com/adforge/backend/internal/http/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimitMiddleware counts requests per route and caller in fixed windows.
// Authenticated callers are keyed by user, others by IP. A non-positive
// limit disables it.
func RateLimitMiddleware(rdb *redis.Client, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limit <= 0 || rdb == nil {
			return c.Next()
		}

		caller := c.IP()
		if userID := GetUserID(c); userID != uuid.Nil {
			caller = userID.String()
		}
		key := fmt.Sprintf("rl:%s:%s:%s", c.Method(), c.Route().Path, caller)

		ctx := c.UserContext()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			return c.Next() // fail open
		}

		if count == 1 {
			rdb.Expire(ctx, key, window)
		}

		if count > int64(limit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Error:     "rate limit exceeded",
				RequestID: GetRequestID(c),
			})
		}

		return c.Next()
	}
}
