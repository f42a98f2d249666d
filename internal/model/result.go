// internal/model/result.go
package model

import "time"

// PrintResult is the normalized outcome of a device call. Success is
// decoupled from the HTTP status: a device may answer with a transport
// failure while still having recorded the fiscal transaction, so the
// business code in the payload participates in classification.
type PrintResult struct {
	Success bool       `json:"success"`
	Data    JSONObject `json:"data,omitempty"`
	Status  int        `json:"status"`
	Err     error      `json:"-"`
}

// ErrorText returns the device-supplied error text, if any
func (r *PrintResult) ErrorText() string {
	if r == nil || r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// FiscalResult carries the fiscal identifiers extracted from a successful
// sale/return response.
type FiscalResult struct {
	FiscalNumber     string `json:"fiscal_number"`
	FiscalDocumentID string `json:"fiscal_document_id,omitempty"`
}

// ShiftStatus is the parsed shift state of the device, derived per check
// and pushed to the backend without local persistence.
type ShiftStatus struct {
	ShiftOpen     bool         `json:"shift_open"`
	ShiftOpenedAt *time.Time   `json:"shift_opened_at"`
	Provider      ProviderName `json:"provider"`
}
