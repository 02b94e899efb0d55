package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/call-relay/crc/internal/config"
	"github.com/call-relay/crc/internal/provider"
)

const vendor = "elevenlabs"

// RegisterParams identifies the call being handed to the voice agent. The
// call SID rides along as a dynamic variable so every later webhook from the
// agent can be routed back to its topic.
type RegisterParams struct {
	AgentID      string
	CallSID      string
	FromNumber   string
	ToNumber     string
	SystemPrompt string // optional prompt override
}

// Registration is the agent's answer. The register-call endpoint usually
// returns TwiML directly for the telephony leg; a JSON fallback carries the
// same thing plus identifiers.
type Registration struct {
	AgentID        string `json:"agent_id"`
	ConversationID string `json:"conversation_id"`
	TwiML          string `json:"twiml"`
}

// Client talks to the ElevenLabs conversational AI API.
type Client struct {
	cfg  config.ElevenLabsConfig
	http *retryablehttp.Client
	log  *zap.SugaredLogger
}

// NewClient creates an ElevenLabs client. The API key is checked on use.
func NewClient(cfg config.ElevenLabsConfig, log *zap.SugaredLogger) *Client {
	return &Client{
		cfg:  cfg,
		http: provider.NewHTTPClient(cfg.Timeout, log),
		log:  log,
	}
}

// RegisterCall registers an outbound call with the voice agent.
func (c *Client) RegisterCall(ctx context.Context, params RegisterParams) (*Registration, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: elevenlabs API key not set", provider.ErrConfig)
	}
	agentID := params.AgentID
	if agentID == "" {
		agentID = c.cfg.AgentID
	}
	if agentID == "" {
		return nil, fmt.Errorf("%w: no voice agent configured", provider.ErrConfig)
	}

	initData := map[string]interface{}{
		"dynamic_variables": map[string]string{
			"call_sid": params.CallSID,
		},
	}
	if params.SystemPrompt != "" {
		initData["conversation_config_override"] = map[string]interface{}{
			"agent": map[string]interface{}{
				"prompt": map[string]string{"prompt": params.SystemPrompt},
			},
		}
	}
	body, err := json.Marshal(map[string]interface{}{
		"agent_id":                            agentID,
		"from_number":                         params.FromNumber,
		"to_number":                           params.ToNumber,
		"conversation_initiation_client_data": initData,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode register-call body: %w", err)
	}

	endpoint := c.cfg.BaseURL + "/v1/convai/twilio/register-call"
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, provider.NormalizeTransport(vendor, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.NormalizeTransport(vendor, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, provider.Normalize(vendor, resp.StatusCode, string(respBody))
	}

	// The endpoint answers with TwiML XML for direct telephony use; JSON is
	// the fallback shape.
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "xml") {
		c.log.Infow("call registered with voice agent", "callId", params.CallSID, "agentId", agentID)
		return &Registration{AgentID: agentID, TwiML: string(respBody)}, nil
	}

	var reg Registration
	if err := json.Unmarshal(respBody, &reg); err != nil {
		return nil, fmt.Errorf("failed to decode register-call response: %w", err)
	}
	if reg.AgentID == "" {
		reg.AgentID = agentID
	}
	c.log.Infow("call registered with voice agent",
		"callId", params.CallSID, "agentId", reg.AgentID, "conversationId", reg.ConversationID)
	return &reg, nil
}
