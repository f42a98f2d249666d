// internal/service/heartbeat.go
package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"fiscal-bridge/internal/backend"
	"fiscal-bridge/internal/utils"
)

// Heartbeat posts liveness and system metadata on a fixed interval.
// Best-effort: failures are logged and otherwise ignored.
type Heartbeat struct {
	backend *backend.Client
	logger  *utils.ServiceLogger

	mu         sync.RWMutex
	lastBeatAt time.Time
	lastOK     bool
}

// NewHeartbeat creates a heartbeat service
func NewHeartbeat(backendClient *backend.Client, logger *zap.Logger) *Heartbeat {
	return &Heartbeat{
		backend: backendClient,
		logger:  utils.NewServiceLogger(logger, "heartbeat"),
	}
}

// RunOnce sends a single heartbeat
func (h *Heartbeat) RunOnce(ctx context.Context) {
	err := h.backend.Heartbeat(ctx)

	h.mu.Lock()
	h.lastBeatAt = time.Now()
	h.lastOK = err == nil
	h.mu.Unlock()

	if err != nil {
		h.logger.Warn("Heartbeat failed", zap.Error(err))
		return
	}
	h.logger.Debug("Heartbeat sent")
}

// LastBeat returns the time and outcome of the last heartbeat
func (h *Heartbeat) LastBeat() (time.Time, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastBeatAt, h.lastOK
}
