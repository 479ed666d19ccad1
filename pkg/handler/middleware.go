package handler

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yuaoi107/yuyi/pkg/model"
)

const loginKey = "login"

// authenticate validates the bearer token and stores the logged in user
// in the request context.
func (h handler) authenticate(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	claims, err := h.auth.ParseToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	c.Set(loginKey, &model.User{ID: claims.UserID, Role: claims.Role})
	c.Next()
}

// login returns the authenticated user, or nil on public routes.
func login(c *gin.Context) *model.User {
	v, ok := c.Get(loginKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

// rateLimit applies a per-user token bucket to mutating routes.
func (h handler) rateLimit() gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[int64]*rate.Limiter)
	)

	return func(c *gin.Context) {
		user := login(c)
		if user == nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		mu.Lock()
		limiter, ok := limiters[user.ID]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(5), 10)
			limiters[user.ID] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}

		c.Next()
	}
}
