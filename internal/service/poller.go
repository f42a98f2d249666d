// internal/service/poller.go
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fiscal-bridge/internal/backend"
	"fiscal-bridge/internal/model"
	"fiscal-bridge/internal/utils"
)

// Poller fetches pending jobs on a fixed interval and feeds them to the
// processor strictly sequentially: one job's full life cycle completes
// before the next job starts, because the physical device is a single
// exclusive resource.
type Poller struct {
	backend   *backend.Client
	processor *Processor
	session   *model.BridgeSession
	logger    *utils.ServiceLogger

	mu         sync.RWMutex
	lastPollAt time.Time
	lastJobID  string
}

// NewPoller creates a job poller
func NewPoller(
	backendClient *backend.Client,
	processor *Processor,
	session *model.BridgeSession,
	logger *zap.Logger,
) *Poller {
	return &Poller{
		backend:   backendClient,
		processor: processor,
		session:   session,
		logger:    utils.NewServiceLogger(logger, "job-poller"),
	}
}

// Tick runs one poll cycle. A credential rejection from the backend is
// returned to the caller and terminates the process; every other error
// is absorbed at the tick boundary.
func (p *Poller) Tick(ctx context.Context) error {
	if !p.session.IsRegistered() {
		p.logger.Debug("Skipping poll, bridge not registered")
		return nil
	}

	p.markPoll("")

	jobs, err := p.backend.Poll(ctx)
	if err != nil {
		var credErr *model.CredentialRejectedError
		if errors.As(err, &credErr) {
			return err
		}
		p.logger.Error("Poll failed", zap.Error(err))
		return nil
	}

	if len(jobs) == 0 {
		return nil
	}

	cycleID := uuid.New().String()
	logger := utils.LoggerWithRequestID(p.logger.Logger, cycleID)
	logger.Info("Processing job batch", zap.Int("jobs", len(jobs)))

	for i := range jobs {
		job := &jobs[i]
		p.markPoll(job.ID)
		p.processor.ProcessJob(ctx, job)
	}

	return nil
}

func (p *Poller) markPoll(jobID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastPollAt = time.Now()
	if jobID != "" {
		p.lastJobID = jobID
	}
}

// LastPoll returns the time of the last poll attempt and the id of the
// last job handed to the processor.
func (p *Poller) LastPoll() (time.Time, string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastPollAt, p.lastJobID
}
