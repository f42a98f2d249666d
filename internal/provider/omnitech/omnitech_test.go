package omnitech

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fiscal-bridge/internal/model"
)

func newTestProvider() *Omnitech {
	return New(zap.NewNop())
}

func TestLoginRequest_NestedShape(t *testing.T) {
	p := newTestProvider()

	req := model.RequestData{
		Body: model.JSONObject{
			"name":     "kassa1",
			"password": "secret",
		},
	}

	body, err := p.LoginRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "kassa1", body["name"])
	assert.Equal(t, "secret", body["password"])

	requestData, ok := body["requestData"].(map[string]interface{})
	require.True(t, ok)
	checkData, ok := requestData["checkData"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "login", checkData["check_type"])
}

func TestLoginRequest_UsernameFallback(t *testing.T) {
	p := newTestProvider()

	body, err := p.LoginRequest(model.RequestData{
		Body: model.JSONObject{"username": "kassa2", "password": "pw"},
	})
	require.NoError(t, err)
	assert.Equal(t, "kassa2", body["name"])
}

func TestParseLoginResponse_TokenPresent(t *testing.T) {
	p := newTestProvider()

	session, err := p.ParseLoginResponse(200, model.JSONObject{"access_token": "abc"})
	require.NoError(t, err)
	assert.True(t, session.LoggedIn)
	assert.Equal(t, "abc", session.AccessToken)
	assert.False(t, session.ObtainedAt.IsZero())
}

func TestParseLoginResponse_NoToken(t *testing.T) {
	p := newTestProvider()

	_, err := p.ParseLoginResponse(200, model.JSONObject{"error": "bad password"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad password")

	var loginErr *model.DeviceLoginError
	assert.ErrorAs(t, err, &loginErr)
}

func TestInjectAuth_CopiesBody(t *testing.T) {
	p := newTestProvider()

	body := model.JSONObject{"operation": "sale"}
	session := &model.PrinterSession{LoggedIn: true, AccessToken: "abc"}

	out := p.InjectAuth(body, session)
	assert.Equal(t, "abc", out["access_token"])

	// the job's own body must stay untouched
	_, mutated := body["access_token"]
	assert.False(t, mutated)
}

func TestInjectAuth_NoSession(t *testing.T) {
	p := newTestProvider()

	body := model.JSONObject{"operation": "sale"}
	assert.Equal(t, body, p.InjectAuth(body, nil))
}

func TestExtractFiscal(t *testing.T) {
	p := newTestProvider()

	result, err := p.ExtractFiscal(model.JSONObject{
		"code": json.Number("0"),
		"data": map[string]interface{}{
			"fiscalId":        "F1",
			"document_number": json.Number("9"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "9", result.FiscalNumber)
	assert.Equal(t, "F1", result.FiscalDocumentID)
}

func TestExtractFiscal_NoNumberIsError(t *testing.T) {
	p := newTestProvider()

	_, err := p.ExtractFiscal(model.JSONObject{
		"code": json.Number("0"),
		"data": map[string]interface{}{"fiscalId": "F1"},
	})
	require.Error(t, err)
}

func TestExtractShiftStatus(t *testing.T) {
	p := newTestProvider()

	status, err := p.ExtractShiftStatus(model.JSONObject{
		"data": map[string]interface{}{
			"shiftOpen":     false,
			"shiftOpenedAt": "2026-08-30T06:00:00Z",
		},
	})
	require.NoError(t, err)
	assert.False(t, status.ShiftOpen)
	assert.Equal(t, model.ProviderOmnitech, status.Provider)
}
