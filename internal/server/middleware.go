package server

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CORSMiddleware sets permissive CORS headers on every response and
// short-circuits preflight requests with 200.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Header("Access-Control-Allow-Methods", "OPTIONS,GET,POST")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// IngestRateLimit throttles reading submissions per customer when redis
// is configured. The customer id lives in the JSON body, so the limiter
// peeks it from there and falls back to the client IP when the body
// carries none.
func (s *Server) IngestRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.ingestLimiter.Enabled() {
			c.Next()
			return
		}

		key := peekCustomerID(c)
		if key == "" {
			key = c.ClientIP()
		}

		result, err := s.ingestLimiter.Allow(c.Request.Context(), key)
		if err != nil {
			// Limiter outage must not take ingestion down with it.
			s.log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !result.Allowed {
			if result.RetryAfter > 0 {
				seconds := int(math.Ceil(result.RetryAfter.Seconds()))
				c.Header("Retry-After", strconv.Itoa(seconds))
			}
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

// peekCustomerID reads customerId out of the request body without
// consuming it; the body is restored for the handler's bind.
func peekCustomerID(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	var peek struct {
		CustomerID string `json:"customerId"`
	}
	if err := json.Unmarshal(body, &peek); err != nil {
		return ""
	}
	return strings.TrimSpace(peek.CustomerID)
}
