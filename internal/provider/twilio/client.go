package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/call-relay/crc/internal/config"
	"github.com/call-relay/crc/internal/provider"
)

const vendor = "twilio"

// statusCallbackEvents are the call progress events the provider reports to
// the status callback URL.
var statusCallbackEvents = []string{"initiated", "ringing", "answered", "completed"}

// Client talks to the Twilio REST API.
type Client struct {
	cfg  config.TwilioConfig
	http *retryablehttp.Client
	log  *zap.SugaredLogger
}

// NewClient creates a Twilio client. Credentials are checked on use, not on
// construction, so the container can start without telephony configured.
func NewClient(cfg config.TwilioConfig, log *zap.SugaredLogger) *Client {
	return &Client{
		cfg:  cfg,
		http: provider.NewHTTPClient(cfg.Timeout, log),
		log:  log,
	}
}

// configured reports whether the client can authenticate.
func (c *Client) configured() error {
	if c.cfg.AccountSID == "" || c.cfg.AuthToken == "" {
		return fmt.Errorf("%w: twilio account SID or auth token not set", provider.ErrConfig)
	}
	if c.cfg.PhoneNumber == "" {
		return fmt.Errorf("%w: twilio phone number not set", provider.ErrConfig)
	}
	return nil
}

// InitiateCall places an outbound call and returns the provider-assigned
// call SID. webhookURL receives the voice webhook once the callee answers;
// statusCallbackURL receives progress callbacks for the whole call.
func (c *Client) InitiateCall(ctx context.Context, to, webhookURL, statusCallbackURL string) (string, error) {
	if err := c.configured(); err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.cfg.PhoneNumber)
	form.Set("Url", webhookURL)
	form.Set("StatusCallback", statusCallbackURL)
	for _, ev := range statusCallbackEvents {
		form.Add("StatusCallbackEvent", ev)
	}
	form.Set("StatusCallbackMethod", http.MethodPost)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", c.cfg.BaseURL, c.cfg.AccountSID)
	body, err := c.postForm(ctx, endpoint, form)
	if err != nil {
		return "", err
	}

	var call struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(body, &call); err != nil {
		return "", fmt.Errorf("failed to decode call resource: %w", err)
	}
	if call.SID == "" {
		return "", fmt.Errorf("call resource has no sid")
	}

	c.log.Infow("call initiated", "callId", call.SID, "to", to)
	return call.SID, nil
}

// EndCall asks the provider to complete an in-flight call.
func (c *Client) EndCall(ctx context.Context, callSID string) error {
	if err := c.configured(); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("Status", "completed")

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls/%s.json", c.cfg.BaseURL, c.cfg.AccountSID, callSID)
	if _, err := c.postForm(ctx, endpoint, form); err != nil {
		return err
	}

	c.log.Infow("call ended", "callId", callSID)
	return nil
}

// postForm performs one authenticated form POST and returns the response
// body, normalizing failures onto provider error codes.
func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, provider.NormalizeTransport(vendor, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.NormalizeTransport(vendor, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, provider.Normalize(vendor, resp.StatusCode, string(body))
	}
	return body, nil
}
