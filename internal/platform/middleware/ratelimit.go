package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReportRateLimit caps how many issues a user may report per rolling day.
// The counter lives in Redis with a TTL set on first increment. A nil client
// disables the limiter (local development without Redis).
//
// Fail-open on Redis errors: losing the limiter must not take reporting down.
func ReportRateLimit(client *redis.Client, limit int, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if client == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			userID := GetUserID(ctx)
			if userID == "" {
				writeUnauthorized(w)
				return
			}

			key := "report-limit:" + userID
			count, err := client.Incr(ctx, key).Result()
			if err != nil {
				logger.WarnContext(ctx, "rate limiter unavailable, allowing request",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			if count == 1 {
				if err := client.Expire(ctx, key, 24*time.Hour).Err(); err != nil {
					logger.WarnContext(ctx, "failed to set rate limit TTL",
						"error", err,
						"request_id", GetRequestID(ctx),
					)
				}
			}

			if count > int64(limit) {
				retryAfter, _ := client.TTL(ctx, key).Result()
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate_limited","error_description":"daily report limit reached"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
