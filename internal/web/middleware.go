package web

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amirk1998/notes-web/internal/identity"
	"github.com/amirk1998/notes-web/internal/logging"
	"github.com/amirk1998/notes-web/pkg/errors"
)

// accessLog writes one structured line per request.
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Pkg("web").Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// authenticate resolves a Bearer token or the session cookie and stores the
// user id in the request context. Missing or invalid credentials leave the
// request anonymous; the note service decides what that means.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(identity.WithClientIP(c.Request.Context(), c.ClientIP()))

		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			raw, _ = c.Cookie(sessionCookie)
		}
		if raw == "" {
			c.Next()
			return
		}

		userID, err := s.tokens.Verify(raw)
		if err != nil {
			c.Next()
			return
		}
		c.Request = c.Request.WithContext(identity.WithUser(c.Request.Context(), userID))
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// rateLimit applies the token bucket per user, or per client IP when anonymous.
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if userID := identity.UserFrom(c.Request.Context()); userID != "" {
			key = "user:" + userID
		}

		if err := s.limiter.CheckLimit(key); err != nil {
			c.Header("Retry-After", strconv.Itoa(1))
			c.AbortWithStatusJSON(errors.HTTPStatus(errors.KindOf(err)), gin.H{
				"success": false,
				"error":   errors.MessageOf(err),
			})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return identity.UserFrom(c.Request.Context())
}
