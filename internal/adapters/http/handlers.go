package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/Conference/internal/app/orch"
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type handlers struct {
	orch *orch.Orchestrator
}

type createSessionRequest struct {
	Owner  domain.ParticipantID  `json:"owner"`
	Config *domain.SessionConfig `json:"config"`
}

type latencyRequest struct {
	LatencyMs uint32 `json:"latency_ms"`
}

type participantRequest struct {
	ParticipantID domain.ParticipantID `json:"participant_id" binding:"required"`
}

type deviceRequest struct {
	DeviceID domain.DeviceID `json:"device_id" binding:"required"`
}

type upgradeRequest struct {
	Type   domain.UpgradeType `json:"type" binding:"required"`
	Detail string             `json:"detail"`
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrParticipantNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionFull):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorizedAction):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidDeviceType), errors.Is(err, domain.ErrInvalidConfiguration),
		errors.Is(err, domain.ErrModeration), errors.Is(err, domain.ErrChat), errors.Is(err, domain.ErrDeviceUpgrade):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	p := core.NewErrorPayload(err)
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": p})
}

func badRequest(c *gin.Context, err error) {
	writeError(c, domain.NewError(domain.KindInvalidConfiguration, "bad request: %v", err))
}

// caller is the acting participant: ?caller= or the client token.
func caller(c *gin.Context) domain.ParticipantID {
	if q := c.Query("caller"); q != "" {
		return domain.ParticipantID(q)
	}
	return domain.ParticipantID(c.GetString(clientTokenKey))
}

func sessionID(c *gin.Context) domain.SessionID {
	return domain.SessionID(c.Param("id"))
}

func (h *handlers) iceServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ice_servers": h.orch.ICEServers})
}

func (h *handlers) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.orch.RoomList()})
}

func (h *handlers) createSession(c *gin.Context) {
	// fields present in the body overlay the defaults
	cfg := domain.DefaultSessionConfig()
	req := createSessionRequest{Config: &cfg}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	if req.Owner == "" {
		req.Owner = caller(c)
	}
	if req.Config == nil {
		req.Config = &cfg
	}
	s, err := h.orch.CreateSession(c.Request.Context(), req.Owner, *req.Config)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *handlers) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.orch.Conference.Sessions().List()})
}

// participantSessions lists the sessions a participant is admitted to.
func (h *handlers) participantSessions(c *gin.Context) {
	out := h.orch.Conference.SessionsOf(domain.ParticipantID(c.Param("pid")))
	if out == nil {
		out = []*domain.Session{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

func (h *handlers) stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sessions":    len(h.orch.Conference.Sessions().IDs()),
		"connections": h.orch.Registry.Count(),
		"rooms":       h.orch.Rooms.Count(),
	})
}

func (h *handlers) getSession(c *gin.Context) {
	s, err := h.orch.Conference.Session(sessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) endSession(c *gin.Context) {
	s, err := h.orch.EndSession(c.Request.Context(), sessionID(c), caller(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) updateConfig(c *gin.Context) {
	var patch domain.ConfigPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	if patch.Empty() {
		badRequest(c, errors.New("patch changes nothing"))
		return
	}
	s, err := h.orch.UpdateConfig(c.Request.Context(), sessionID(c), caller(c), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) reportLatency(c *gin.Context) {
	var req latencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s, err := h.orch.ReportLatency(c.Request.Context(), sessionID(c), req.LatencyMs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Stats)
}

func (h *handlers) authorizeModerator(c *gin.Context) {
	var req participantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s, err := h.orch.AuthorizeModerator(c.Request.Context(), sessionID(c), caller(c), req.ParticipantID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) banParticipant(c *gin.Context) {
	var req participantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s, err := h.orch.BanParticipant(c.Request.Context(), sessionID(c), caller(c), req.ParticipantID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) banDevice(c *gin.Context) {
	var req deviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s, err := h.orch.BanDevice(c.Request.Context(), sessionID(c), caller(c), req.DeviceID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) approve(c *gin.Context) {
	s, err := h.orch.Approve(c.Request.Context(), sessionID(c), caller(c), domain.ParticipantID(c.Param("pid")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) deny(c *gin.Context) {
	s, err := h.orch.Deny(c.Request.Context(), sessionID(c), caller(c), domain.ParticipantID(c.Param("pid")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) requestUpgrade(c *gin.Context) {
	var req upgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	target, err := h.orch.RequestUpgrade(c.Request.Context(), domain.UpgradeRequest{
		Device: domain.DeviceID(c.Param("id")),
		Type:   req.Type,
		Detail: req.Detail,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"session_id": target.Session, "participant_id": target.Participant})
}
