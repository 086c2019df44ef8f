package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qs-lzh/spotlight/internal/auth"
	"github.com/qs-lzh/spotlight/internal/cache"
	"github.com/qs-lzh/spotlight/internal/metrics"
)

const (
	requestIDHeader = "X-Request-ID"
	claimsKey       = "claims"
	sessionCookie   = "auth_token"
)

// RequestLogger tags each request with an id and writes one access log
// line when it completes.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		requestID := ctx.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.Header(requestIDHeader, requestID)

		ctx.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.FullPath()),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", ctx.ClientIP()),
		}
		if len(ctx.Errors) > 0 {
			fields = append(fields, zap.String("errors", ctx.Errors.String()))
		}
		logger.Info("request", fields...)
	}
}

// Authenticate reads a session token from the Authorization header or the
// session cookie. Requests without a valid token continue anonymously.
func Authenticate(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token == "" {
			ctx.Next()
			return
		}
		claims, err := tokens.Parse(token)
		if err == nil {
			ctx.Set(claimsKey, claims)
		}
		ctx.Next()
	}
}

func bearerToken(ctx *gin.Context) string {
	if header := ctx.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	if cookie, err := ctx.Cookie(sessionCookie); err == nil {
		return cookie
	}
	return ""
}

func currentClaims(ctx *gin.Context) (*auth.Claims, bool) {
	v, ok := ctx.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

func RequireAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := currentClaims(ctx); !ok {
			ctx.AbortWithStatusJSON(401, gin.H{
				"error":   "Unauthorized",
				"message": "Sign in to continue",
			})
			return
		}
		ctx.Next()
	}
}

// RequireAdmin answers 401 to anonymous callers and 403 to signed-in
// callers who are not administrators.
func RequireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, ok := currentClaims(ctx)
		if !ok {
			ctx.AbortWithStatusJSON(401, gin.H{
				"error":   "Unauthorized",
				"message": "Sign in to continue",
			})
			return
		}
		if !claims.IsAdmin {
			ctx.AbortWithStatusJSON(403, gin.H{
				"error":   "Forbidden",
				"message": "Administrator access required",
			})
			return
		}
		ctx.Next()
	}
}

// RateLimit allows max requests per client ip and window for action. When
// the cache is down the request is refused with 503 unless failOpen is set.
func RateLimit(limiter *cache.RateLimiter, action string, max int, window time.Duration, failOpen bool, logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		key := cache.MakeRateLimitKey(action, ctx.ClientIP())
		result, err := limiter.CheckAndConsume(ctx.Request.Context(), key, max, window)
		if err != nil {
			if errors.Is(err, cache.ErrCacheUnavailable) && failOpen {
				metrics.RecordRateLimitDecision(action, "unavailable")
				logger.Warn("rate limiter unavailable, letting request through", zap.String("action", action), zap.Error(err))
				ctx.Next()
				return
			}
			metrics.RecordRateLimitDecision(action, "unavailable")
			logger.Error("rate limiter unavailable, refusing request", zap.String("action", action), zap.Error(err))
			ctx.AbortWithStatusJSON(503, gin.H{
				"error":   "Service unavailable",
				"message": "Please try again later",
			})
			return
		}
		if !result.Allowed {
			metrics.RecordRateLimitDecision(action, "limited")
			ctx.Header("Retry-After", strconv.Itoa(result.RetryAfter))
			ctx.AbortWithStatusJSON(429, gin.H{
				"error":      "Rate limit exceeded. Please try again later.",
				"retryAfter": result.RetryAfter,
			})
			return
		}
		metrics.RecordRateLimitDecision(action, "allowed")
		ctx.Next()
	}
}
