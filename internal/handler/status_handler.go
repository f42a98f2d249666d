// internal/handler/status_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fiscal-bridge/internal/config"
	"fiscal-bridge/internal/gateway"
	"fiscal-bridge/internal/model"
	"fiscal-bridge/internal/service"
	"fiscal-bridge/internal/utils"
)

// StatusHandler serves the loopback status endpoints. Read-only; the
// bridge has no admin surface.
type StatusHandler struct {
	config    *config.Config
	session   *model.BridgeSession
	gateway   *gateway.Gateway
	poller    *service.Poller
	heartbeat *service.Heartbeat
	syncer    *service.ShiftSynchronizer
	logger    *utils.ServiceLogger
}

// NewStatusHandler creates a status handler
func NewStatusHandler(
	cfg *config.Config,
	session *model.BridgeSession,
	gw *gateway.Gateway,
	poller *service.Poller,
	heartbeat *service.Heartbeat,
	syncer *service.ShiftSynchronizer,
	logger *zap.Logger,
) *StatusHandler {
	return &StatusHandler{
		config:    cfg,
		session:   session,
		gateway:   gw,
		poller:    poller,
		heartbeat: heartbeat,
		syncer:    syncer,
		logger:    utils.NewServiceLogger(logger, "status-handler"),
	}
}

// RegisterRoutes registers status routes
func (h *StatusHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", h.HealthCheck)
	router.GET("/live", h.LivenessCheck)
	router.GET("/status", h.Status)
}

// HealthCheck reports overall bridge health: healthy when registered
func (h *StatusHandler) HealthCheck(c *gin.Context) {
	healthy := h.session.IsRegistered()

	statusCode := http.StatusOK
	status := "healthy"
	if !healthy {
		statusCode = http.StatusServiceUnavailable
		status = "unhealthy"
	}

	c.JSON(statusCode, gin.H{
		"status":    status,
		"timestamp": time.Now(),
		"service":   h.config.AppName,
		"version":   h.config.Version,
		"uptime":    utils.Uptime().String(),
	})
}

// LivenessCheck reports that the process is alive
func (h *StatusHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alive": true})
}

// Status reports bridge session, printer session and timer state
func (h *StatusHandler) Status(c *gin.Context) {
	lastPollAt, lastJobID := h.poller.LastPoll()
	lastBeatAt, beatOK := h.heartbeat.LastBeat()

	utils.SuccessResponse(c, http.StatusOK, "Bridge status", gin.H{
		"registered":       h.session.IsRegistered(),
		"account_id":       h.session.AccountID(),
		"bridge_name":      h.session.BridgeName(),
		"poll_interval":    h.session.PollInterval().String(),
		"printer_url":      h.config.PrinterURL(),
		"printer_sessions": h.gateway.Sessions().Count(),
		"last_poll_at":     lastPollAt,
		"last_job_id":      lastJobID,
		"last_heartbeat":   lastBeatAt,
		"heartbeat_ok":     beatOK,
		"last_shift_sync":  h.syncer.LastRun(),
		"uptime":           utils.Uptime().String(),
	})
}
