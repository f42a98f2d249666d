// internal/model/errors.go
package model

import (
	"errors"
	"fmt"
)

// ConfigError is a fatal configuration problem detected before any
// network activity.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// CredentialRejectedError means the backend or the device explicitly
// rejected a credential. No retry path exists; the process must exit.
type CredentialRejectedError struct {
	Source string // "backend" or "device"
	Detail string
}

func (e *CredentialRejectedError) Error() string {
	return fmt.Sprintf("%s credential rejected: %s", e.Source, e.Detail)
}

// DeviceLoginError is a recoverable login failure against the device.
// It is reported as a job failure; at most one re-login is attempted.
type DeviceLoginError struct {
	Provider ProviderName
	Detail   string
}

func (e *DeviceLoginError) Error() string {
	return fmt.Sprintf("%s login failed: %s", e.Provider, e.Detail)
}

// TransportError is a network or timeout failure talking to the device
// or the backend. The backend owns the retry decision.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError means the device response was missing expected fields or
// carried a business failure. Message preserves the device's own error
// text so the operator sees the real rejection reason.
type ProtocolError struct {
	Provider ProviderName
	Message  string
	Raw      JSONObject
}

func (e *ProtocolError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s protocol error", e.Provider)
}

// UnsupportedProviderError means a job named a provider the bridge has no
// dialect for. Surfaced explicitly rather than silently skipping re-auth.
type UnsupportedProviderError struct {
	Provider ProviderName
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported provider: %q", e.Provider)
}

// IsFatal reports whether an error class must terminate the process
func IsFatal(err error) bool {
	var configErr *ConfigError
	var credErr *CredentialRejectedError
	return errors.As(err, &configErr) || errors.As(err, &credErr)
}
