package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pairwave/rendezvous/internal/domain"
)

// respondError is the single mapping from the engine's error taxonomy
// to HTTP. Handlers never pick status codes themselves.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
	case errors.Is(err, domain.ErrBadJoinCode):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "bad_join_code"})
	case errors.Is(err, domain.ErrUnauthorized):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "unauthorized"})
	case errors.Is(err, domain.ErrRoomNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "room_not_found"})
	case errors.Is(err, domain.ErrInvalidState):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "invalid_state"})
	case errors.Is(err, domain.ErrRoomClosed):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "room_closed"})
	case errors.Is(err, domain.ErrRateLimited):
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited"})
	case errors.Is(err, domain.ErrStorageUnavailable):
		log.Error().Err(err).Str("module", "adapters.http").Msg("storage unavailable")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "storage_unavailable"})
	default:
		log.Error().Err(err).Str("module", "adapters.http").Msg("unhandled error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}
