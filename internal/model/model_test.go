package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOperationTypeClassification(t *testing.T) {
	assert.True(t, OperationTypeSale.IsFiscal())
	assert.True(t, OperationTypeReturn.IsFiscal())

	nonFiscal := []OperationType{
		OperationTypeShiftOpen, OperationTypeShiftClose, OperationTypeShiftStatus,
		OperationTypeXReport, OperationTypeDeposit, OperationTypeWithdraw,
		OperationTypeOpenCashbox, OperationTypePrintLast, OperationTypeRollback,
		OperationTypePeriodicReport, OperationTypeConnectionCheck, OperationTypeLogout,
	}
	for _, op := range nonFiscal {
		assert.False(t, op.IsFiscal(), "operation %q", op)
	}

	// Unknown types default to fiscal so a new backend operation never
	// silently skips number extraction.
	assert.True(t, OperationType("future_op").IsFiscal())
}

func TestAffectsShift(t *testing.T) {
	assert.True(t, OperationTypeShiftOpen.AffectsShift())
	assert.True(t, OperationTypeShiftClose.AffectsShift())
	assert.False(t, OperationTypeSale.AffectsShift())
	assert.False(t, OperationTypeXReport.AffectsShift())
	assert.False(t, OperationTypeShiftStatus.AffectsShift())
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(&ConfigError{Reason: "token is required"}))
	assert.True(t, IsFatal(&CredentialRejectedError{Source: "backend"}))
	assert.True(t, IsFatal(fmt.Errorf("wrapped: %w", &CredentialRejectedError{Source: "backend"})))

	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(errors.New("plain")))
	assert.False(t, IsFatal(&DeviceLoginError{Provider: ProviderCaspos}))
	assert.False(t, IsFatal(&TransportError{Op: "print", Err: errors.New("timeout")}))
	assert.False(t, IsFatal(&ProtocolError{Provider: ProviderCaspos}))
}

func TestJSONObjectClone(t *testing.T) {
	original := JSONObject{"a": 1, "b": "two"}
	clone := original.Clone()

	clone["a"] = 99
	assert.Equal(t, 1, original["a"], "clone must not share the top-level map")

	assert.NotNil(t, JSONObject(nil).Clone())
}

func TestJSONObjectString(t *testing.T) {
	assert.Equal(t, "", JSONObject(nil).String())
	assert.Equal(t, `{"a":"1"}`, JSONObject{"a": "1"}.String())
}

func TestBridgeSession(t *testing.T) {
	s := NewBridgeSession(5*time.Second, time.Minute)

	assert.False(t, s.IsRegistered())
	assert.Equal(t, 5*time.Second, s.PollInterval())

	s.Register("acc-1", "store-7", 2*time.Second)
	assert.True(t, s.IsRegistered())
	assert.Equal(t, "acc-1", s.AccountID())
	assert.Equal(t, "store-7", s.BridgeName())
	assert.Equal(t, 2*time.Second, s.PollInterval())
	assert.Equal(t, time.Minute, s.HeartbeatInterval())

	// zero interval from the backend keeps the current value
	s.Register("acc-1", "store-7", 0)
	assert.Equal(t, 2*time.Second, s.PollInterval())

	s.Reset()
	assert.False(t, s.IsRegistered())
	assert.Empty(t, s.AccountID())
}
