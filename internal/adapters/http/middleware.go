package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pairwave/rendezvous/internal/config"
	"github.com/pairwave/rendezvous/internal/core"
	"github.com/pairwave/rendezvous/internal/domain"
)

const clientCookie = "ct"

// ClientIdentity tags every request with a stable opaque id used for
// rate-limit bucketing. The cookie carries no authority; bearer tokens
// do the authorization.
func ClientIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(clientCookie)
		if id == "" {
			id = uuid.NewString()
			c.SetCookie(clientCookie, id, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_id", id)
		c.Next()
	}
}

func clientID(c *gin.Context) string {
	if id := c.GetString("client_id"); id != "" {
		return id
	}
	return c.ClientIP()
}

// ProtocolVersion rejects mutating calls from incompatible clients
// before anything touches storage.
func ProtocolVersion(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-Signal-Protocol") != version {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "protocol_mismatch"})
			return
		}
		c.Next()
	}
}

// CORSAllowList reflects the origin only when it is in the configured
// allow list. The engine stays out of origin policy entirely.
func CORSAllowList(origins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := allowed[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Signal-Protocol")
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RateLimit consults one bucket before the handler runs, so a rejected
// request never reaches a storage write. A limiter backend failure
// fails open: dropping traffic on a limiter outage hurts more than
// letting a burst through.
func RateLimit(limiter core.RateLimiter, category string, lim config.Limit, keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if lim.Requests <= 0 {
			c.Next()
			return
		}
		bucket := category + ":" + keyFn(c)
		allowed, err := limiter.Allow(c.Request.Context(), bucket, lim.Requests, lim.Window)
		if err != nil {
			log.Warn().Err(err).Str("module", "adapters.http").Str("bucket", bucket).Msg("rate limiter unavailable")
			c.Next()
			return
		}
		if !allowed {
			respondError(c, domain.ErrRateLimited)
			return
		}
		c.Next()
	}
}
