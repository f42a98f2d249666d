package backend

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

	"fiscal-bridge/internal/model"
)

func newTestClient(url string) *Client {
	return NewClient(url, "test-token", "1.2.3", 5*time.Second, zap.NewNop())
}

func TestRegister(t *testing.T) {
	var gotAuth string
	var gotBody registerRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/bridge/register", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"account_id":"acc-1","bridge_name":"store-7","poll_interval":2500}`))
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).Register(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "1.2.3", gotBody.Version)
	assert.NotEmpty(t, gotBody.Info.GoVersion)
	assert.Equal(t, "acc-1", resp.AccountID)
	assert.Equal(t, "store-7", resp.BridgeName)
	assert.Equal(t, 2500, resp.PollIntervalMs)
}

func TestRegister_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Register(context.Background())
	assert.Error(t, err)
}

func TestDo_UnauthorizedIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token revoked", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Poll(context.Background())

	var credErr *model.CredentialRejectedError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, "backend", credErr.Source)
	assert.Contains(t, credErr.Detail, "token revoked")
	assert.True(t, model.IsFatal(err))
}

func TestDo_ServerErrorIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Poll(context.Background())

	require.Error(t, err)
	assert.False(t, model.IsFatal(err))
}

func TestPoll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bridge/poll", r.URL.Path)
		w.Write([]byte(`{
			"success": true,
			"jobs": [
				{
					"id": "job-1",
					"operation_type": "sale",
					"sale_id": "s-9",
					"provider": "caspos",
					"request_data": {"url": "http://192.168.1.50:5893", "body": {"operation": "sale"}}
				}
			]
		}`))
	}))
	defer server.Close()

	jobs, err := newTestClient(server.URL).Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	assert.Equal(t, "job-1", jobs[0].ID)
	assert.Equal(t, model.OperationTypeSale, jobs[0].OperationType)
	assert.Equal(t, model.ProviderCaspos, jobs[0].Provider)
	assert.Equal(t, "http://192.168.1.50:5893", jobs[0].RequestData.URL)
}

func TestGetShiftStatusRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"success": true,
			"provider": "omnitech",
			"request_data": {"url": "http://192.168.1.50:4040", "body": {"operation": "shift_status"}}
		}`))
	}))
	defer server.Close()

	req, err := newTestClient(server.URL).GetShiftStatusRequest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, req)

	assert.Equal(t, model.ProviderOmnitech, req.Provider)
	assert.Equal(t, "http://192.168.1.50:4040", req.RequestData.URL)
}

func TestGetShiftStatusRequest_NotConfigured(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"404 answer": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "not found", http.StatusNotFound)
		},
		"success false": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":false}`))
		},
		"missing request data": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true,"provider":"caspos"}`))
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(handler)
			defer server.Close()

			req, err := newTestClient(server.URL).GetShiftStatusRequest(context.Background())
			assert.NoError(t, err)
			assert.Nil(t, req)
		})
	}
}

func TestCompleteJob(t *testing.T) {
	var gotPath string
	var gotBody CompletionReport

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	err := newTestClient(server.URL).CompleteJob(context.Background(), "job-7", &CompletionReport{
		FiscalNumber:     "77",
		FiscalDocumentID: "D-100",
		Response:         "ok",
	})
	require.NoError(t, err)

	assert.Equal(t, "/bridge/job/job-7/complete", gotPath)
	assert.Equal(t, "77", gotBody.FiscalNumber)
	assert.Equal(t, "D-100", gotBody.FiscalDocumentID)
}

func TestCompleteShiftJob(t *testing.T) {
	var gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	err := newTestClient(server.URL).CompleteShiftJob(context.Background(), "job-8", &ShiftCompletionReport{Response: "ok"})
	require.NoError(t, err)
	assert.Equal(t, "/bridge/job/job-8/complete-shift", gotPath)
}

func TestFailJob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bridge/job/job-9/fail", r.URL.Path)
		w.Write([]byte(`{"is_retriable":true,"can_retry":false}`))
	}))
	defer server.Close()

	decision, err := newTestClient(server.URL).FailJob(context.Background(), "job-9", &FailureReport{Error: "printer offline"})
	require.NoError(t, err)

	assert.True(t, decision.IsRetriable)
	assert.False(t, decision.CanRetry)
}
