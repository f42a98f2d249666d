// pkg/fiscal/provider.go
package fiscal

import (
	"fiscal-bridge/internal/model"
)

// Provider encapsulates one fiscal-device protocol dialect. The gateway
// owns all HTTP traffic; a provider only builds and interprets payloads.
type Provider interface {
	Name() model.ProviderName

	// RequiresLogin reports whether a device session must exist before
	// print requests are sent.
	RequiresLogin() bool

	// LoginRequest builds the provider's login body from credentials
	// embedded in the job's request body.
	LoginRequest(req model.RequestData) (model.JSONObject, error)

	// ParseLoginResponse interprets a login response into a printer
	// session, or a DeviceLoginError carrying the device's own message.
	ParseLoginResponse(status int, payload model.JSONObject) (*model.PrinterSession, error)

	// InjectAuth returns a copy of body with the session's credentials
	// applied. Providers without bearer tokens return body unchanged.
	InjectAuth(body model.JSONObject, session *model.PrinterSession) model.JSONObject

	// ErrorMessage extracts the device's own error text from a payload
	ErrorMessage(payload model.JSONObject) string

	// ExtractFiscal pulls fiscal number and document id from a
	// business-successful sale/return response, trying the provider's
	// known field names in order.
	ExtractFiscal(payload model.JSONObject) (*model.FiscalResult, error)

	// ExtractShiftStatus parses the device's shift-status fields
	ExtractShiftStatus(payload model.JSONObject) (*model.ShiftStatus, error)
}

// BusinessCode returns the provider-agnostic business result code from a
// device payload. Devices return it as a JSON number or string.
func BusinessCode(payload model.JSONObject) (string, bool) {
	if payload == nil {
		return "", false
	}
	raw, ok := payload["code"]
	if !ok {
		return "", false
	}
	code, ok := NormalizeValue(raw)
	return code, ok
}

// IsSuccessCode reports whether a business code means success. At least
// one provider returns the code as a string, so both forms are accepted.
func IsSuccessCode(code string) bool {
	return code == "0"
}

// IsAuthFailureCode reports whether a business code means the cached
// device session is no longer valid.
func IsAuthFailureCode(code string) bool {
	return code == "401" || code == "403"
}
