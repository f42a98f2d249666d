// internal/provider/omnitech/omnitech.go
package omnitech

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"fiscal-bridge/internal/model"
	"fiscal-bridge/pkg/fiscal"
)

var (
	accessTokenPaths = []string{
		"access_token",
		"data.access_token",
		"accessToken",
	}
	fiscalNumberPaths = []string{
		"data.document_number",
		"data.fiscalNumber",
		"data.number",
		"document_number",
	}
	fiscalDocumentPaths = []string{
		"data.fiscalId",
		"data.fiscal_id",
		"data.documentId",
		"fiscalId",
	}
	errorMessagePaths = []string{
		"error",
		"message",
		"data.error",
		"data.errorMessage",
	}
	shiftOpenPaths = []string{
		"data.shiftOpen",
		"data.shift.isOpen",
		"data.shift_open",
		"shiftOpen",
	}
	shiftOpenedAtPaths = []string{
		"data.shiftOpenedAt",
		"data.shift.openedAt",
		"data.shift_opened_at",
	}
)

// Omnitech implements the Omnitech dialect. Authentication is a nested
// login request answered with a bearer token that must ride along in
// every subsequent request body. There is no expiry tracking; the token
// is replaced reactively when the device reports an auth failure.
type Omnitech struct {
	logger *zap.Logger
}

// New creates an Omnitech dialect instance
func New(logger *zap.Logger) *Omnitech {
	return &Omnitech{
		logger: logger.With(zap.String("provider", string(model.ProviderOmnitech))),
	}
}

// Name returns the provider name
func (o *Omnitech) Name() model.ProviderName {
	return model.ProviderOmnitech
}

// RequiresLogin reports that Omnitech devices need a token before printing
func (o *Omnitech) RequiresLogin() bool {
	return true
}

// LoginRequest builds the nested login-shaped payload from credentials
// embedded in the job's request body.
func (o *Omnitech) LoginRequest(req model.RequestData) (model.JSONObject, error) {
	name, okName := fiscal.Lookup(req.Body, "name")
	if !okName {
		name, okName = fiscal.Lookup(req.Body, "username")
	}
	password, okPass := fiscal.Lookup(req.Body, "password")
	if !okName || !okPass {
		return nil, &model.DeviceLoginError{
			Provider: model.ProviderOmnitech,
			Detail:   "request body carries no name/password",
		}
	}

	return model.JSONObject{
		"requestData": map[string]interface{}{
			"checkData": map[string]interface{}{
				"check_type": "login",
			},
		},
		"name":     name,
		"password": password,
	}, nil
}

// ParseLoginResponse interprets a login response; success is the
// presence of an access token.
func (o *Omnitech) ParseLoginResponse(status int, payload model.JSONObject) (*model.PrinterSession, error) {
	token, ok := fiscal.FirstField(payload, accessTokenPaths)
	if !ok {
		detail := o.ErrorMessage(payload)
		if detail == "" {
			detail = fmt.Sprintf("no access token in login response (status %d)", status)
		}
		return nil, &model.DeviceLoginError{
			Provider: model.ProviderOmnitech,
			Detail:   detail,
		}
	}

	o.logger.Debug("Login accepted, token cached")
	return &model.PrinterSession{
		LoggedIn:    true,
		AccessToken: token,
		ObtainedAt:  time.Now(),
	}, nil
}

// InjectAuth copies the body and applies the cached bearer token
func (o *Omnitech) InjectAuth(body model.JSONObject, session *model.PrinterSession) model.JSONObject {
	if session == nil || session.AccessToken == "" {
		return body
	}
	out := body.Clone()
	out["access_token"] = session.AccessToken
	return out
}

// ErrorMessage extracts the device's own error text
func (o *Omnitech) ErrorMessage(payload model.JSONObject) string {
	msg, _ := fiscal.FirstField(payload, errorMessagePaths)
	return msg
}

// ExtractFiscal pulls fiscal identifiers from a successful response
func (o *Omnitech) ExtractFiscal(payload model.JSONObject) (*model.FiscalResult, error) {
	number, ok := fiscal.FirstField(payload, fiscalNumberPaths)
	if !ok {
		return nil, &model.ProtocolError{
			Provider: model.ProviderOmnitech,
			Message:  "device reported success but returned no fiscal number",
			Raw:      payload,
		}
	}

	result := &model.FiscalResult{FiscalNumber: number}
	if docID, ok := fiscal.FirstField(payload, fiscalDocumentPaths); ok {
		result.FiscalDocumentID = docID
	}
	return result, nil
}

// ExtractShiftStatus parses the shift-status fields
func (o *Omnitech) ExtractShiftStatus(payload model.JSONObject) (*model.ShiftStatus, error) {
	open, ok := fiscal.FirstBool(payload, shiftOpenPaths)
	if !ok {
		return nil, &model.ProtocolError{
			Provider: model.ProviderOmnitech,
			Message:  "shift status response carries no shift state",
			Raw:      payload,
		}
	}

	status := &model.ShiftStatus{
		ShiftOpen: open,
		Provider:  model.ProviderOmnitech,
	}
	if openedAt, ok := fiscal.FirstTime(payload, shiftOpenedAtPaths); ok {
		status.ShiftOpenedAt = openedAt
	}
	return status, nil
}
