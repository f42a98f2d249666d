// internal/backend/client.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"fiscal-bridge/internal/model"
	"fiscal-bridge/internal/utils"
)

// Client talks to the cloud POS backend over bearer-token HTTP
type Client struct {
	baseURL string
	token   string
	version string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a backend API client
func NewClient(baseURL, token, version string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		version: version,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With(zap.String("component", "backend")),
	}
}

// RegisterResponse is the backend's answer to a registration request
type RegisterResponse struct {
	Success        bool   `json:"success"`
	AccountID      string `json:"account_id"`
	BridgeName     string `json:"bridge_name"`
	PollIntervalMs int    `json:"poll_interval"`
}

// registerRequest carries version and system metadata
type registerRequest struct {
	Version string           `json:"version"`
	Info    utils.SystemInfo `json:"info"`
}

// pollResponse is the backend's pending-job batch
type pollResponse struct {
	Success bool        `json:"success"`
	Jobs    []model.Job `json:"jobs"`
}

// ShiftStatusRequest is a backend-configured shift check to run against
// the device.
type ShiftStatusRequest struct {
	Provider    model.ProviderName `json:"provider"`
	RequestData model.RequestData  `json:"request_data"`
}

type shiftStatusRequestResponse struct {
	Success     bool               `json:"success"`
	Provider    model.ProviderName `json:"provider"`
	RequestData *model.RequestData `json:"request_data"`
}

// CompletionReport is the fiscal completion payload
type CompletionReport struct {
	FiscalNumber     string           `json:"fiscal_number"`
	FiscalDocumentID string           `json:"fiscal_document_id,omitempty"`
	Response         string           `json:"response"`
	ResponseData     model.JSONObject `json:"response_data"`
}

// ShiftCompletionReport is the non-fiscal completion payload
type ShiftCompletionReport struct {
	Response     string           `json:"response"`
	ResponseData model.JSONObject `json:"response_data"`
}

// FailureReport is the job failure payload
type FailureReport struct {
	Error        string           `json:"error"`
	ResponseData model.JSONObject `json:"response_data,omitempty"`
}

// FailResponse tells the bridge what the backend decided about a failed
// job. The bridge only logs this; retry policy is backend-owned.
type FailResponse struct {
	IsRetriable bool `json:"is_retriable"`
	CanRetry    bool `json:"can_retry"`
}

// Register establishes identity with the backend
func (c *Client) Register(ctx context.Context) (*RegisterResponse, error) {
	req := registerRequest{
		Version: c.version,
		Info:    utils.CollectSystemInfo(),
	}

	var resp RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/bridge/register", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("backend rejected registration")
	}
	return &resp, nil
}

// Heartbeat reports liveness and system metadata
func (c *Client) Heartbeat(ctx context.Context) error {
	req := registerRequest{
		Version: c.version,
		Info:    utils.CollectSystemInfo(),
	}
	return c.do(ctx, http.MethodPost, "/bridge/heartbeat", req, nil)
}

// Poll fetches the next batch of pending jobs
func (c *Client) Poll(ctx context.Context) ([]model.Job, error) {
	var resp pollResponse
	if err := c.do(ctx, http.MethodGet, "/bridge/poll", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// GetShiftStatusRequest asks the backend whether a shift-status check is
// configured. A 404 or success:false answer means not configured and is
// not an error.
func (c *Client) GetShiftStatusRequest(ctx context.Context) (*ShiftStatusRequest, error) {
	var resp shiftStatusRequestResponse
	err := c.do(ctx, http.MethodGet, "/bridge/get-shift-status-request", nil, &resp)
	if err != nil {
		var statusErr *statusError
		if asStatusError(err, &statusErr) && statusErr.code == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if !resp.Success || resp.RequestData == nil {
		return nil, nil
	}
	return &ShiftStatusRequest{
		Provider:    resp.Provider,
		RequestData: *resp.RequestData,
	}, nil
}

// PushStatus reports the parsed shift status back to the backend
func (c *Client) PushStatus(ctx context.Context, status *model.ShiftStatus) error {
	return c.do(ctx, http.MethodPost, "/bridge/push-status", status, nil)
}

// CompleteJob reports a fiscal job completion
func (c *Client) CompleteJob(ctx context.Context, jobID string, report *CompletionReport) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/bridge/job/%s/complete", jobID), report, nil)
}

// CompleteShiftJob reports a non-fiscal job completion
func (c *Client) CompleteShiftJob(ctx context.Context, jobID string, report *ShiftCompletionReport) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/bridge/job/%s/complete-shift", jobID), report, nil)
}

// FailJob reports a job failure and returns the backend's retry decision
func (c *Client) FailJob(ctx context.Context, jobID string, report *FailureReport) (*FailResponse, error) {
	var resp FailResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/bridge/job/%s/fail", jobID), report, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// statusError carries a non-2xx backend status for classification
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.code, e.body)
}

func asStatusError(err error, target **statusError) bool {
	se, ok := err.(*statusError)
	if ok {
		*target = se
	}
	return ok
}

// do executes one backend call. An authentication rejection from the
// backend surfaces as CredentialRejectedError, which is fatal for the
// process: no amount of retrying fixes a revoked credential.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &model.TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &model.TransportError{Op: method + " " + path, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &model.CredentialRejectedError{
			Source: "backend",
			Detail: strings.TrimSpace(string(raw)),
		}
	case resp.StatusCode >= 400:
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(raw))}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode backend response: %w", err)
		}
	}
	return nil
}
