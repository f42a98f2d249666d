// internal/service/processor.go
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"fiscal-bridge/internal/backend"
	"fiscal-bridge/internal/gateway"
	"fiscal-bridge/internal/model"
	"fiscal-bridge/internal/provider"
	"fiscal-bridge/internal/utils"
	"fiscal-bridge/pkg/fiscal"
)

// Processor interprets a job's operation type, drives the printer
// gateway, extracts provider-specific result fields, and reports the
// outcome to the backend.
type Processor struct {
	backend  *backend.Client
	gateway  *gateway.Gateway
	registry *provider.Registry
	syncer   *ShiftSynchronizer
	logger   *utils.ServiceLogger
}

// NewProcessor creates a job processor
func NewProcessor(
	backendClient *backend.Client,
	gw *gateway.Gateway,
	registry *provider.Registry,
	syncer *ShiftSynchronizer,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		backend:  backendClient,
		gateway:  gw,
		registry: registry,
		syncer:   syncer,
		logger:   utils.NewServiceLogger(logger, "job-processor"),
	}
}

// ProcessJob runs one job's full life cycle: device call plus backend
// report. Returns whether the job completed without error from the
// bridge's perspective. The backend owns all retry decisions.
func (p *Processor) ProcessJob(ctx context.Context, job *model.Job) bool {
	jobLogger := utils.NewJobLogger(p.logger.Logger, string(job.OperationType), job.ID)
	jobLogger.Start(zap.String("provider", string(job.Provider)))

	result := p.gateway.Print(ctx, job.Provider, job.RequestData)
	if !result.Success {
		err := result.Err
		if err == nil {
			err = fmt.Errorf("device call failed with status %d", result.Status)
		}
		p.reportFailure(ctx, job, err, result)
		jobLogger.Error(err)
		return false
	}

	var reportErr error
	if job.OperationType.IsFiscal() {
		reportErr = p.completeFiscal(ctx, job, result)
	} else {
		reportErr = p.completeNonFiscal(ctx, job, result)
	}

	if reportErr != nil {
		p.reportFailure(ctx, job, reportErr, result)
		jobLogger.Error(reportErr)
		return false
	}

	jobLogger.Success()
	return true
}

// completeNonFiscal reports the raw device response through the shift
// completion path. Non-fiscal operations carry no fiscal number to
// reconcile. Shift-affecting jobs trigger an immediate status sync so
// the backend sees the new shift state without waiting for the timer.
func (p *Processor) completeNonFiscal(ctx context.Context, job *model.Job, result *model.PrintResult) error {
	report := &backend.ShiftCompletionReport{
		Response:     result.Data.String(),
		ResponseData: result.Data,
	}
	if err := p.backend.CompleteShiftJob(ctx, job.ID, report); err != nil {
		return fmt.Errorf("failed to report completion: %w", err)
	}

	if job.OperationType.AffectsShift() {
		p.syncer.RunOnce(ctx)
	}
	return nil
}

// completeFiscal validates the business result, extracts the fiscal
// identifiers with the provider's field precedence, and reports
// completion. A business-successful response without a fiscal number is
// itself an error worth surfacing.
func (p *Processor) completeFiscal(ctx context.Context, job *model.Job, result *model.PrintResult) error {
	prov, err := p.registry.Get(job.Provider)
	if err != nil {
		return err
	}

	if code, ok := fiscal.BusinessCode(result.Data); ok && !fiscal.IsSuccessCode(code) {
		msg := prov.ErrorMessage(result.Data)
		if msg == "" {
			msg = fmt.Sprintf("device returned business code %q", code)
		}
		return &model.ProtocolError{Provider: job.Provider, Message: msg, Raw: result.Data}
	}

	fiscalResult, err := prov.ExtractFiscal(result.Data)
	if err != nil {
		return err
	}

	report := &backend.CompletionReport{
		FiscalNumber:     fiscalResult.FiscalNumber,
		FiscalDocumentID: fiscalResult.FiscalDocumentID,
		Response:         result.Data.String(),
		ResponseData:     result.Data,
	}
	if err := p.backend.CompleteJob(ctx, job.ID, report); err != nil {
		return fmt.Errorf("failed to report completion: %w", err)
	}
	return nil
}

// reportFailure posts the failure with the device's own error text and
// raw response body for operator diagnosis. The backend's answer says
// whether the job is retriable; the bridge only logs it.
func (p *Processor) reportFailure(ctx context.Context, job *model.Job, jobErr error, result *model.PrintResult) {
	report := &backend.FailureReport{Error: jobErr.Error()}
	if result != nil && result.Data != nil {
		report.ResponseData = result.Data
	}

	decision, err := p.backend.FailJob(ctx, job.ID, report)
	if err != nil {
		var credErr *model.CredentialRejectedError
		if errors.As(err, &credErr) {
			// The next poll tick turns this into a process-fatal exit
			p.logger.Error("Backend rejected credentials while reporting failure", zap.Error(err))
			return
		}
		p.logger.Error("Failed to report job failure",
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
		return
	}

	p.logger.Info("Job failure reported",
		zap.String("job_id", job.ID),
		zap.Bool("is_retriable", decision.IsRetriable),
		zap.Bool("can_retry", decision.CanRetry),
	)
}
