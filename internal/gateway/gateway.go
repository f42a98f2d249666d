// internal/gateway/gateway.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"fiscal-bridge/internal/model"
	"fiscal-bridge/internal/provider"
	"fiscal-bridge/internal/utils"
	"fiscal-bridge/pkg/fiscal"
)

// Gateway is the provider-aware HTTP client to the local fiscal device.
// It owns per-device login state and the retry-on-auth-failure protocol.
// The device is a single exclusive physical resource: a mutex serializes
// every device call across the poller and the shift synchronizer.
type Gateway struct {
	registry   *provider.Registry
	sessions   *SessionStore
	client     *http.Client
	logger     *zap.Logger
	baseLogger *zap.Logger

	mu sync.Mutex
}

// New creates a gateway with a bounded transport timeout
func New(registry *provider.Registry, timeout time.Duration, logger *zap.Logger) *Gateway {
	return &Gateway{
		registry:   registry,
		sessions:   NewSessionStore(),
		client:     &http.Client{Timeout: timeout},
		logger:     logger.With(zap.String("component", "gateway")),
		baseLogger: logger,
	}
}

// Sessions exposes the session store for status reporting
func (g *Gateway) Sessions() *SessionStore {
	return g.sessions
}

// Print executes one device request. The result decouples transport
// status from business success: a response with HTTP status >= 500 but
// business code 0 still recorded the fiscal transaction, and treating it
// as a failure would cause a duplicate print of a real tax document.
func (g *Gateway) Print(ctx context.Context, providerName model.ProviderName, req model.RequestData) *model.PrintResult {
	p, err := g.registry.Get(providerName)
	if err != nil {
		return &model.PrintResult{Success: false, Err: err}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	session, err := g.ensureSession(ctx, p, req)
	if err != nil {
		return &model.PrintResult{Success: false, Err: err}
	}

	result := g.send(ctx, p, req, session)

	// One re-login and one retry when the payload carries an
	// auth-failure code. Never more than one of each.
	if code, ok := fiscal.BusinessCode(result.Data); ok && fiscal.IsAuthFailureCode(code) {
		g.logger.Warn("Device session rejected, re-authenticating",
			zap.String("provider", string(providerName)),
			zap.String("code", code),
		)
		g.sessions.Invalidate(req.URL)

		session, err = g.login(ctx, p, req)
		if err != nil {
			return &model.PrintResult{Success: false, Status: result.Status, Data: result.Data, Err: err}
		}

		result = g.send(ctx, p, req, session)
		if code, ok := fiscal.BusinessCode(result.Data); ok && fiscal.IsAuthFailureCode(code) {
			result.Success = false
			result.Err = &model.ProtocolError{
				Provider: providerName,
				Message:  g.deviceError(p, result, "device rejected credentials after re-login"),
				Raw:      result.Data,
			}
			return result
		}
	}

	return result
}

// ensureSession returns the cached session for the device, establishing
// one when the provider requires login. A token injected by the backend
// into the request data seeds the session without a login round-trip.
func (g *Gateway) ensureSession(ctx context.Context, p fiscal.Provider, req model.RequestData) (*model.PrinterSession, error) {
	if !p.RequiresLogin() {
		return nil, nil
	}

	if session, ok := g.sessions.Get(req.URL); ok {
		return session, nil
	}

	if req.AccessToken != "" {
		session := &model.PrinterSession{
			LoggedIn:    true,
			AccessToken: req.AccessToken,
			ObtainedAt:  time.Now(),
		}
		g.sessions.Set(req.URL, session)
		return session, nil
	}

	return g.login(ctx, p, req)
}

// login performs the provider-specific login flow and caches the session
func (g *Gateway) login(ctx context.Context, p fiscal.Provider, req model.RequestData) (*model.PrinterSession, error) {
	loginBody, err := p.LoginRequest(req)
	if err != nil {
		return nil, err
	}

	status, payload, err := g.post(ctx, req.URL, req.Headers, loginBody)
	if err != nil {
		return nil, &model.TransportError{Op: "login", Err: err}
	}

	session, err := p.ParseLoginResponse(status, payload)
	if err != nil {
		return nil, err
	}

	g.sessions.Set(req.URL, session)
	g.logger.Info("Device session established",
		zap.String("provider", string(p.Name())),
		zap.String("device_url", req.URL),
	)
	return session, nil
}

// send posts the job body with auth applied and classifies the outcome
func (g *Gateway) send(ctx context.Context, p fiscal.Provider, req model.RequestData, session *model.PrinterSession) *model.PrintResult {
	body := p.InjectAuth(req.Body, session)

	start := time.Now()
	status, payload, err := g.post(ctx, req.URL, req.Headers, body)
	if err != nil {
		return &model.PrintResult{
			Success: false,
			Err:     &model.TransportError{Op: "print", Err: err},
		}
	}

	code, hasCode := fiscal.BusinessCode(payload)
	success := (status >= 200 && status < 300) || (hasCode && fiscal.IsSuccessCode(code))

	result := &model.PrintResult{
		Success: success,
		Data:    payload,
		Status:  status,
	}
	if !success {
		result.Err = &model.ProtocolError{
			Provider: p.Name(),
			Message:  g.deviceError(p, result, fmt.Sprintf("device returned status %d, code %q", status, code)),
			Raw:      payload,
		}
	}

	operation, _ := req.Body["operation"].(string)
	deviceLogger := utils.NewDeviceLogger(g.baseLogger, req.URL, string(p.Name()))
	deviceLogger.LogCall(operation, status, time.Since(start), success, result.Err)

	return result
}

// deviceError prefers the device's own error text over a generic message
func (g *Gateway) deviceError(p fiscal.Provider, result *model.PrintResult, fallback string) string {
	if msg := p.ErrorMessage(result.Data); msg != "" {
		return msg
	}
	return fallback
}

// post sends a JSON POST and decodes the response uniformly. Non-2xx
// statuses are captured, never surfaced as errors; numeric payload
// fields come back as json.Number so fiscal numbers survive intact.
func (g *Gateway) post(ctx context.Context, url string, headers map[string]string, body model.JSONObject) (int, model.JSONObject, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	payload := model.JSONObject{}
	if len(bytes.TrimSpace(raw)) > 0 {
		decoder := json.NewDecoder(strings.NewReader(string(raw)))
		decoder.UseNumber()
		if err := decoder.Decode(&payload); err != nil {
			// Devices occasionally answer with plain text
			payload = model.JSONObject{"raw": string(raw)}
		}
	}

	return resp.StatusCode, payload, nil
}
