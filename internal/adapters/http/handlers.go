package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"

	"github.com/pairwave/rendezvous/internal/app"
	"github.com/pairwave/rendezvous/internal/domain"
)

type RoomHandler struct {
	engine *app.Engine
}

func NewRoomHandler(engine *app.Engine) *RoomHandler {
	return &RoomHandler{engine: engine}
}

type CreateRoomRequest struct {
	HostName string `json:"hostName" binding:"required,displayname"`
}

type JoinRoomRequest struct {
	JoinCode  string `json:"joinCode" binding:"required,len=6"`
	GuestName string `json:"guestName" binding:"required,displayname"`
}

type SDPRequest struct {
	Type string `json:"type" binding:"required"`
	SDP  string `json:"sdp" binding:"required"`
}

type CandidateRequest struct {
	Candidate string `json:"candidate" binding:"required"`
}

type CandidatesResponse struct {
	Items []string `json:"items"`
}

func (h *RoomHandler) Create(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrInvalidRequest)
		return
	}
	res, err := h.engine.Create(c.Request.Context(), req.HostName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *RoomHandler) Lookup(c *gin.Context) {
	code := c.Param("code")
	if !domain.ValidRoomCode(code) {
		respondError(c, domain.ErrRoomNotFound)
		return
	}
	view, err := h.engine.Lookup(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *RoomHandler) Join(c *gin.Context) {
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrInvalidRequest)
		return
	}
	code := c.Param("code")
	if !domain.ValidRoomCode(code) {
		// Same shape as a wrong code: existence must not leak.
		respondError(c, domain.ErrBadJoinCode)
		return
	}
	res, err := h.engine.Join(c.Request.Context(), code, req.JoinCode, req.GuestName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *RoomHandler) Offer(c *gin.Context) {
	h.submitSDP(c, webrtc.SDPTypeOffer)
}

func (h *RoomHandler) Answer(c *gin.Context) {
	h.submitSDP(c, webrtc.SDPTypeAnswer)
}

func (h *RoomHandler) submitSDP(c *gin.Context, want webrtc.SDPType) {
	var req SDPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrInvalidRequest)
		return
	}
	desc := webrtc.SessionDescription{Type: webrtc.NewSDPType(req.Type), SDP: req.SDP}
	var err error
	if want == webrtc.SDPTypeOffer {
		err = h.engine.SubmitOffer(c.Request.Context(), c.Param("code"), bearerToken(c), desc)
	} else {
		err = h.engine.SubmitAnswer(c.Request.Context(), c.Param("code"), bearerToken(c), desc)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RoomHandler) SubmitCandidate(c *gin.Context) {
	var req CandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrInvalidRequest)
		return
	}
	if err := h.engine.SubmitCandidate(c.Request.Context(), c.Param("code"), bearerToken(c), req.Candidate); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RoomHandler) Snapshot(c *gin.Context) {
	snap, err := h.engine.Snapshot(c.Request.Context(), c.Param("code"), bearerToken(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *RoomHandler) Candidates(c *gin.Context) {
	items, err := h.engine.Candidates(c.Request.Context(), c.Param("code"), bearerToken(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CandidatesResponse{Items: items})
}

func (h *RoomHandler) Close(c *gin.Context) {
	if err := h.engine.Close(c.Request.Context(), c.Param("code"), bearerToken(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bearerToken pulls the opaque token out of the Authorization header.
// An empty return fails verification downstream; no decision is made here.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
