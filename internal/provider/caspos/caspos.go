// internal/provider/caspos/caspos.go
package caspos

import (
	"fmt"

	"go.uber.org/zap"

	"fiscal-bridge/internal/model"
	"fiscal-bridge/pkg/fiscal"
)

// Field precedence lists. Caspos firmware revisions are inconsistent
// about which name carries the receipt number.
var (
	fiscalNumberPaths = []string{
		"data.number",
		"data.fiscal_number",
		"data.doc_number",
		"number",
		"fiscal_number",
	}
	fiscalDocumentPaths = []string{
		"data.fiscal_document_id",
		"data.doc_id",
		"data.document_id",
		"fiscal_document_id",
	}
	errorMessagePaths = []string{
		"error",
		"message",
		"data.error",
		"data.message",
	}
	shiftOpenPaths = []string{
		"data.shift_open",
		"data.shiftOpen",
		"shift_open",
		"data.shift_status",
	}
	shiftOpenedAtPaths = []string{
		"data.shift_opened_at",
		"data.shiftOpenedAt",
		"shift_opened_at",
	}
)

// Caspos implements the Caspos cash-register dialect. Authentication is
// a single login operation; the session is a plain logged-in flag.
type Caspos struct {
	logger *zap.Logger
}

// New creates a Caspos dialect instance
func New(logger *zap.Logger) *Caspos {
	return &Caspos{
		logger: logger.With(zap.String("provider", string(model.ProviderCaspos))),
	}
}

// Name returns the provider name
func (c *Caspos) Name() model.ProviderName {
	return model.ProviderCaspos
}

// RequiresLogin reports that Caspos devices need a login before printing
func (c *Caspos) RequiresLogin() bool {
	return true
}

// LoginRequest builds the login body from credentials embedded in the
// job's request body.
func (c *Caspos) LoginRequest(req model.RequestData) (model.JSONObject, error) {
	username, okUser := fiscal.Lookup(req.Body, "username")
	password, okPass := fiscal.Lookup(req.Body, "password")
	if !okUser || !okPass {
		return nil, &model.DeviceLoginError{
			Provider: model.ProviderCaspos,
			Detail:   "request body carries no username/password",
		}
	}

	return model.JSONObject{
		"operation": "login",
		"username":  username,
		"password":  password,
	}, nil
}

// ParseLoginResponse interprets a login response; success is business
// code 0.
func (c *Caspos) ParseLoginResponse(status int, payload model.JSONObject) (*model.PrinterSession, error) {
	code, ok := fiscal.BusinessCode(payload)
	if !ok || !fiscal.IsSuccessCode(code) {
		return nil, &model.DeviceLoginError{
			Provider: model.ProviderCaspos,
			Detail:   c.loginFailureDetail(status, code, payload),
		}
	}

	c.logger.Debug("Login accepted")
	return &model.PrinterSession{LoggedIn: true}, nil
}

func (c *Caspos) loginFailureDetail(status int, code string, payload model.JSONObject) string {
	if msg := c.ErrorMessage(payload); msg != "" {
		return msg
	}
	return fmt.Sprintf("status %d, code %q", status, code)
}

// InjectAuth is a no-op: Caspos sessions carry no token
func (c *Caspos) InjectAuth(body model.JSONObject, session *model.PrinterSession) model.JSONObject {
	return body
}

// ErrorMessage extracts the device's own error text
func (c *Caspos) ErrorMessage(payload model.JSONObject) string {
	msg, _ := fiscal.FirstField(payload, errorMessagePaths)
	return msg
}

// ExtractFiscal pulls fiscal identifiers from a successful response. A
// business-successful response without a fiscal number is an error, not
// something to silently accept.
func (c *Caspos) ExtractFiscal(payload model.JSONObject) (*model.FiscalResult, error) {
	number, ok := fiscal.FirstField(payload, fiscalNumberPaths)
	if !ok {
		return nil, &model.ProtocolError{
			Provider: model.ProviderCaspos,
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
func (c *Caspos) ExtractShiftStatus(payload model.JSONObject) (*model.ShiftStatus, error) {
	open, ok := fiscal.FirstBool(payload, shiftOpenPaths)
	if !ok {
		return nil, &model.ProtocolError{
			Provider: model.ProviderCaspos,
			Message:  "shift status response carries no shift state",
			Raw:      payload,
		}
	}

	status := &model.ShiftStatus{
		ShiftOpen: open,
		Provider:  model.ProviderCaspos,
	}
	if openedAt, ok := fiscal.FirstTime(payload, shiftOpenedAtPaths); ok {
		status.ShiftOpenedAt = openedAt
	}
	return status, nil
}
