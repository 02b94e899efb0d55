package elevenlabs

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

	"github.com/call-relay/crc/internal/config"
	"github.com/call-relay/crc/internal/provider"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.ElevenLabsConfig{
		APIKey:  "xi_test",
		AgentID: "agent_1",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	}, zap.NewNop().Sugar())
}

func TestRegisterCallCarriesCallSID(t *testing.T) {
	var got map[string]interface{}
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/convai/twilio/register-call", r.URL.Path)
		assert.Equal(t, "xi_test", r.Header.Get("xi-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"agent_id":"agent_1","conversation_id":"conv_9"}`))
	})

	reg, err := client.RegisterCall(context.Background(), RegisterParams{
		CallSID:    "CA123",
		FromNumber: "+15550001111",
		ToNumber:   "+15552223333",
	})
	require.NoError(t, err)
	assert.Equal(t, "conv_9", reg.ConversationID)

	initData := got["conversation_initiation_client_data"].(map[string]interface{})
	dynVars := initData["dynamic_variables"].(map[string]interface{})
	assert.Equal(t, "CA123", dynVars["call_sid"],
		"call SID must ride along so webhooks can be routed back")
	_, hasOverride := initData["conversation_config_override"]
	assert.False(t, hasOverride, "no prompt override requested")
}

func TestRegisterCallPromptOverride(t *testing.T) {
	var got map[string]interface{}
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.RegisterCall(context.Background(), RegisterParams{
		CallSID:      "CA123",
		SystemPrompt: "Act like a patient receptionist.",
	})
	require.NoError(t, err)

	initData := got["conversation_initiation_client_data"].(map[string]interface{})
	override := initData["conversation_config_override"].(map[string]interface{})
	agent := override["agent"].(map[string]interface{})
	prompt := agent["prompt"].(map[string]interface{})
	assert.Equal(t, "Act like a patient receptionist.", prompt["prompt"])
}

func TestRegisterCallTwiMLResponse(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(`<?xml version="1.0"?><Response><Connect/></Response>`))
	})

	reg, err := client.RegisterCall(context.Background(), RegisterParams{CallSID: "CA123"})
	require.NoError(t, err)
	assert.Contains(t, reg.TwiML, "<Response>")
	assert.Equal(t, "agent_1", reg.AgentID)
}

func TestRegisterCallFailureNormalized(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"invalid api key"}`))
	})

	_, err := client.RegisterCall(context.Background(), RegisterParams{CallSID: "CA123"})
	require.ErrorIs(t, err, provider.ErrConfig)
}

func TestRegisterCallWithoutKeyOrAgent(t *testing.T) {
	client := NewClient(config.ElevenLabsConfig{Timeout: time.Second}, zap.NewNop().Sugar())
	_, err := client.RegisterCall(context.Background(), RegisterParams{CallSID: "CA123"})
	require.ErrorIs(t, err, provider.ErrConfig)

	client = NewClient(config.ElevenLabsConfig{APIKey: "xi", Timeout: time.Second}, zap.NewNop().Sugar())
	_, err = client.RegisterCall(context.Background(), RegisterParams{CallSID: "CA123"})
	require.ErrorIs(t, err, provider.ErrConfig)
}
