// internal/service/shift_sync.go
package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"fiscal-bridge/internal/backend"
	"fiscal-bridge/internal/gateway"
	"fiscal-bridge/internal/provider"
	"fiscal-bridge/internal/utils"
)

// ShiftSynchronizer keeps the backend's view of the device shift state
// current. It runs on its own timer and is also triggered out-of-band
// after shift-affecting jobs. A missed sync has no fiscal consequence,
// so every failure here is logged at low severity and never escalates.
type ShiftSynchronizer struct {
	backend  *backend.Client
	gateway  *gateway.Gateway
	registry *provider.Registry
	logger   *utils.ServiceLogger

	mu        sync.RWMutex
	lastRunAt time.Time
}

// NewShiftSynchronizer creates a shift status synchronizer
func NewShiftSynchronizer(
	backendClient *backend.Client,
	gw *gateway.Gateway,
	registry *provider.Registry,
	logger *zap.Logger,
) *ShiftSynchronizer {
	return &ShiftSynchronizer{
		backend:  backendClient,
		gateway:  gw,
		registry: registry,
		logger:   utils.NewServiceLogger(logger, "shift-sync"),
	}
}

// RunOnce performs one synchronization cycle: ask the backend for the
// configured check, execute it against the device, and push the parsed
// status back. No configured check is a quiet no-op.
func (s *ShiftSynchronizer) RunOnce(ctx context.Context) {
	s.markRun()

	check, err := s.backend.GetShiftStatusRequest(ctx)
	if err != nil {
		s.logger.Warn("Could not fetch shift status request", zap.Error(err))
		return
	}
	if check == nil {
		s.logger.Debug("No shift status check configured")
		return
	}

	result := s.gateway.Print(ctx, check.Provider, check.RequestData)
	if !result.Success {
		s.logger.Warn("Shift status check failed on device", zap.Error(result.Err))
		return
	}

	prov, err := s.registry.Get(check.Provider)
	if err != nil {
		s.logger.Warn("Shift status check names unknown provider", zap.Error(err))
		return
	}

	status, err := prov.ExtractShiftStatus(result.Data)
	if err != nil {
		s.logger.Warn("Could not parse shift status", zap.Error(err))
		return
	}

	if err := s.backend.PushStatus(ctx, status); err != nil {
		s.logger.Warn("Could not push shift status", zap.Error(err))
		return
	}

	s.logger.Debug("Shift status pushed",
		zap.Bool("shift_open", status.ShiftOpen),
		zap.String("provider", string(status.Provider)),
	)
}

func (s *ShiftSynchronizer) markRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRunAt = time.Now()
}

// LastRun returns the time of the last sync attempt
func (s *ShiftSynchronizer) LastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRunAt
}
