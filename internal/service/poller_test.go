package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
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

func newPollerStack(t *testing.T, backendURL string, registered bool) *Poller {
	t.Helper()
	logger := zap.NewNop()
	registry := provider.NewRegistry(logger)
	provider.RegisterDefaultProviders(registry, logger)

	client := backend.NewClient(backendURL, "token", "test", 5*time.Second, logger)
	gw := gateway.New(registry, 5*time.Second, logger)
	syncer := NewShiftSynchronizer(client, gw, registry, logger)
	processor := NewProcessor(client, gw, registry, syncer, logger)

	session := model.NewBridgeSession(time.Second, time.Minute)
	if registered {
		session.Register("acc-1", "store-1", 0)
	}
	return NewPoller(client, processor, session, logger)
}

func TestTick_SkipsWhenUnregistered(t *testing.T) {
	polled := false
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polled = true
		w.Write([]byte(`{"success":true,"jobs":[]}`))
	}))
	defer backendSrv.Close()

	poller := newPollerStack(t, backendSrv.URL, false)

	require.NoError(t, poller.Tick(context.Background()))
	assert.False(t, polled, "unregistered bridge must not poll")
}

func TestTick_EmptyBatch(t *testing.T) {
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bridge/poll", r.URL.Path)
		w.Write([]byte(`{"success":true,"jobs":[]}`))
	}))
	defer backendSrv.Close()

	poller := newPollerStack(t, backendSrv.URL, true)

	require.NoError(t, poller.Tick(context.Background()))

	lastPoll, lastJob := poller.LastPoll()
	assert.False(t, lastPoll.IsZero())
	assert.Empty(t, lastJob)
}

func TestTick_CredentialRejectionIsReturned(t *testing.T) {
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token revoked", http.StatusUnauthorized)
	}))
	defer backendSrv.Close()

	poller := newPollerStack(t, backendSrv.URL, true)

	err := poller.Tick(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsFatal(err))
}

func TestTick_BackendOutageIsAbsorbed(t *testing.T) {
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer backendSrv.Close()

	poller := newPollerStack(t, backendSrv.URL, true)

	assert.NoError(t, poller.Tick(context.Background()), "a backend outage must not kill the tick loop")
}

func TestTick_ProcessesJobsSequentially(t *testing.T) {
	var mu sync.Mutex
	var deviceOrder []string

	device := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := model.JSONObject{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["operation"] == "login" {
			w.Write([]byte(`{"code":"0"}`))
			return
		}
		mu.Lock()
		deviceOrder = append(deviceOrder, body["sale"].(string))
		mu.Unlock()
		w.Write([]byte(`{"code":"0","data":{"number":"1"}}`))
	}))
	defer device.Close()

	jobsJSON := `{
		"success": true,
		"jobs": [
			{"id":"A","operation_type":"sale","provider":"caspos",
			 "request_data":{"url":"` + device.URL + `","body":{"operation":"sale","sale":"first","username":"u","password":"p"}}},
			{"id":"B","operation_type":"sale","provider":"caspos",
			 "request_data":{"url":"` + device.URL + `","body":{"operation":"sale","sale":"second","username":"u","password":"p"}}}
		]
	}`

	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/bridge/poll":
			w.Write([]byte(jobsJSON))
		case strings.HasSuffix(r.URL.Path, "/complete"):
			w.Write([]byte(`{"success":true}`))
		default:
			http.Error(w, "unexpected "+r.URL.Path, http.StatusTeapot)
		}
	}))
	defer backendSrv.Close()

	poller := newPollerStack(t, backendSrv.URL, true)

	require.NoError(t, poller.Tick(context.Background()))

	assert.Equal(t, []string{"first", "second"}, deviceOrder)

	_, lastJob := poller.LastPoll()
	assert.Equal(t, "B", lastJob)
}
