package httpapi

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"landmarket/identity"
)

const (
	headerRequestID = "X-Request-ID"
	ctxUserKey      = "current_user"
)

// RequestID propagates the caller's request id or mints one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(headerRequestID, rid)
		c.Set(headerRequestID, rid)
		c.Next()
	}
}

// RateLimitPerIP applies a token bucket per client address.
func RateLimitPerIP(rps rate.Limit, burst int) gin.HandlerFunc {
	var (
		mu      sync.Mutex
		buckets = make(map[string]*rate.Limiter)
	)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		mu.Lock()
		lim, ok := buckets[ip]
		if !ok {
			lim = rate.NewLimiter(rps, burst)
			buckets[ip] = lim
		}
		mu.Unlock()

		if !lim.Allow() {
			writeError(c, http.StatusTooManyRequests, "RateLimited", "too many requests")
			return
		}
		c.Next()
	}
}

// Authenticate resolves the bearer token to a user and stores it on the
// context. Requests without a token proceed anonymously; the access layer
// decides what anonymous callers may do. A token for a deleted account is
// treated the same as an invalid one.
func Authenticate(users *identity.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.Next()
			return
		}

		userID, _, err := users.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(c, http.StatusUnauthorized, "InvalidToken", "invalid token")
			return
		}
		user, err := users.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			writeError(c, http.StatusUnauthorized, "InvalidToken", "invalid token")
			return
		}

		c.Set(ctxUserKey, user)
		c.Next()
	}
}

// currentUser returns the authenticated user or nil for anonymous calls.
func currentUser(c *gin.Context) *identity.User {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*identity.User)
	return user
}
