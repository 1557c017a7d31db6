// Package http is the gin transport in front of the room engine. It
// owns everything the engine treats as an external collaborator: CORS,
// rate limiting, protocol versioning and request parsing.
package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/pairwave/rendezvous/internal/app"
	"github.com/pairwave/rendezvous/internal/config"
	"github.com/pairwave/rendezvous/internal/core"
	"github.com/pairwave/rendezvous/internal/domain"
)

// Pinger is implemented by backends that can report liveness (the
// redis store); the actor store needs none and passes nil.
type Pinger interface {
	Ping(ctx context.Context) error
}

func SetupRouter(cfg *config.Config, engine *app.Engine, limiter core.RateLimiter, pinger Pinger) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	registerValidations()

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(ClientIdentity())
	r.Use(CORSAllowList(cfg.AllowedOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		if pinger != nil {
			if err := pinger.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := NewRoomHandler(engine)
	proto := ProtocolVersion(cfg.ProtocolVersion)

	byClient := func(c *gin.Context) string { return clientID(c) }
	byIP := func(c *gin.Context) string { return c.ClientIP() }
	byRoom := func(c *gin.Context) string { return c.Param("code") }

	api := r.Group("/api/v1")
	api.POST("/rooms", proto,
		RateLimit(limiter, core.BucketCreate, cfg.Limits.Create, byClient), h.Create)
	api.GET("/rooms/:code",
		RateLimit(limiter, core.BucketLookup, cfg.Limits.Lookup, byClient), h.Lookup)
	api.POST("/rooms/:code/join", proto,
		RateLimit(limiter, core.BucketJoinIP, cfg.Limits.JoinIP, byIP),
		RateLimit(limiter, core.BucketJoinRoom, cfg.Limits.JoinRoom, byRoom), h.Join)
	api.PUT("/rooms/:code/offer", proto,
		RateLimit(limiter, core.BucketMutation, cfg.Limits.Mutation, byClient), h.Offer)
	api.PUT("/rooms/:code/answer", proto,
		RateLimit(limiter, core.BucketMutation, cfg.Limits.Mutation, byClient), h.Answer)
	api.POST("/rooms/:code/candidates", proto,
		RateLimit(limiter, core.BucketMutation, cfg.Limits.Mutation, byClient), h.SubmitCandidate)
	api.GET("/rooms/:code/snapshot",
		RateLimit(limiter, core.BucketPoll, cfg.Limits.Poll, byClient), h.Snapshot)
	api.GET("/rooms/:code/candidates",
		RateLimit(limiter, core.BucketPoll, cfg.Limits.Poll, byClient), h.Candidates)
	api.DELETE("/rooms/:code", proto,
		RateLimit(limiter, core.BucketMutation, cfg.Limits.Mutation, byClient), h.Close)

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}

// registerValidations teaches gin's validator the display-name rule so
// malformed names are rejected at binding time.
func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("displayname", func(fl validator.FieldLevel) bool {
			return domain.ValidDisplayName(fl.Field().String())
		})
	}
}
