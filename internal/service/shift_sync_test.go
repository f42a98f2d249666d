package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fiscal-bridge/internal/backend"
	"fiscal-bridge/internal/gateway"
	"fiscal-bridge/internal/model"
	"fiscal-bridge/internal/provider"
)

func newSyncerStack(t *testing.T, backendURL string) *ShiftSynchronizer {
	t.Helper()
	logger := zap.NewNop()
	registry := provider.NewRegistry(logger)
	provider.RegisterDefaultProviders(registry, logger)

	client := backend.NewClient(backendURL, "token", "test", 5*time.Second, logger)
	gw := gateway.New(registry, 5*time.Second, logger)
	return NewShiftSynchronizer(client, gw, registry, logger)
}

func TestRunOnce_PushesParsedStatus(t *testing.T) {
	device := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := model.JSONObject{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["operation"] == "login" {
			w.Write([]byte(`{"code":"0"}`))
			return
		}
		w.Write([]byte(`{"code":"0","data":{"shift_open":true,"shift_opened_at":"2026-08-31T09:00:00Z"}}`))
	}))
	defer device.Close()

	fb := newFakeBackend()
	fb.shiftCheckBody = `{
		"success": true,
		"provider": "caspos",
		"request_data": {"url": "` + device.URL + `", "body": {"operation": "shift_status", "username": "u", "password": "p"}}
	}`
	backendSrv := httptest.NewServer(fb.handler(t))
	defer backendSrv.Close()

	syncer := newSyncerStack(t, backendSrv.URL)
	syncer.RunOnce(context.Background())

	require.Len(t, fb.pushedStatuses, 1)
	status := fb.pushedStatuses[0]
	assert.True(t, status.ShiftOpen)
	assert.Equal(t, model.ProviderCaspos, status.Provider)
	require.NotNil(t, status.ShiftOpenedAt)
	assert.Equal(t, 2026, status.ShiftOpenedAt.Year())

	assert.False(t, syncer.LastRun().IsZero())
}

func TestRunOnce_NoCheckConfigured(t *testing.T) {
	fb := newFakeBackend() // empty shiftCheckBody answers 404
	backendSrv := httptest.NewServer(fb.handler(t))
	defer backendSrv.Close()

	syncer := newSyncerStack(t, backendSrv.URL)
	syncer.RunOnce(context.Background())

	assert.Equal(t, 1, fb.statusRequests)
	assert.Empty(t, fb.pushedStatuses)
}

func TestRunOnce_DeviceFailureIsSwallowed(t *testing.T) {
	fb := newFakeBackend()
	fb.shiftCheckBody = `{
		"success": true,
		"provider": "caspos",
		"request_data": {"url": "http://127.0.0.1:1", "body": {"operation": "shift_status", "username": "u", "password": "p"}}
	}`
	backendSrv := httptest.NewServer(fb.handler(t))
	defer backendSrv.Close()

	syncer := newSyncerStack(t, backendSrv.URL)
	// must not panic or push anything
	syncer.RunOnce(context.Background())

	assert.Empty(t, fb.pushedStatuses)
}
