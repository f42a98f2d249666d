// internal/model/job.go
package model

import "encoding/json"

// OperationType represents the type of a bridge job
type OperationType string

const (
	OperationTypeSale   OperationType = "sale"
	OperationTypeReturn OperationType = "return"

	OperationTypeShiftOpen       OperationType = "shift_open"
	OperationTypeShiftClose      OperationType = "shift_close"
	OperationTypeShiftStatus     OperationType = "shift_status"
	OperationTypeXReport         OperationType = "x_report"
	OperationTypeDeposit         OperationType = "deposit"
	OperationTypeWithdraw        OperationType = "withdraw"
	OperationTypeOpenCashbox     OperationType = "open_cashbox"
	OperationTypePrintLast       OperationType = "print_last"
	OperationTypeRollback        OperationType = "rollback"
	OperationTypePeriodicReport  OperationType = "periodic_report"
	OperationTypeConnectionCheck OperationType = "connection_check"
	OperationTypeLogout          OperationType = "logout"
)

// nonFiscalOperations is the fixed set of operations that carry no fiscal
// number and report through the shift-completion path.
var nonFiscalOperations = map[OperationType]bool{
	OperationTypeShiftOpen:       true,
	OperationTypeShiftClose:      true,
	OperationTypeShiftStatus:     true,
	OperationTypeXReport:         true,
	OperationTypeDeposit:         true,
	OperationTypeWithdraw:        true,
	OperationTypeOpenCashbox:     true,
	OperationTypePrintLast:       true,
	OperationTypeRollback:        true,
	OperationTypePeriodicReport:  true,
	OperationTypeConnectionCheck: true,
	OperationTypeLogout:          true,
}

// shiftAffectingOperations change the device's shift state and trigger an
// immediate shift-status sync after completion.
var shiftAffectingOperations = map[OperationType]bool{
	OperationTypeShiftOpen:  true,
	OperationTypeShiftClose: true,
}

// IsFiscal reports whether the operation produces a fiscal document
func (ot OperationType) IsFiscal() bool {
	return !nonFiscalOperations[ot]
}

// AffectsShift reports whether the operation changes the shift state
func (ot OperationType) AffectsShift() bool {
	return shiftAffectingOperations[ot]
}

// ProviderName identifies the protocol dialect spoken by the fiscal device
type ProviderName string

const (
	ProviderCaspos   ProviderName = "caspos"
	ProviderOmnitech ProviderName = "omnitech"
)

// RequestData is the backend-prepared device request carried by a job
type RequestData struct {
	URL         string            `json:"url"`
	Headers     map[string]string `json:"headers,omitempty"`
	Body        JSONObject        `json:"body"`
	AccessToken string            `json:"access_token,omitempty"`
}

// Job represents a single pending operation fetched from the backend.
// Jobs are immutable once received and consumed exactly once per poll
// cycle; the backend is the sole source of truth for redelivery.
type Job struct {
	ID            string        `json:"id"`
	OperationType OperationType `json:"operation_type"`
	SaleID        string        `json:"sale_id,omitempty"`
	Provider      ProviderName  `json:"provider"`
	RequestData   RequestData   `json:"request_data"`
}

// JSONObject is a free-form JSON object payload
type JSONObject map[string]interface{}

// Clone returns a shallow copy so auth injection never mutates the job
func (j JSONObject) Clone() JSONObject {
	if j == nil {
		return JSONObject{}
	}
	out := make(JSONObject, len(j))
	for k, v := range j {
		out[k] = v
	}
	return out
}

// String renders the object as compact JSON for logging and failure reports
func (j JSONObject) String() string {
	if j == nil {
		return ""
	}
	data, err := json.Marshal(j)
	if err != nil {
		return ""
	}
	return string(data)
}
