package config

import "time"

// Config is the full container configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Relay      RelayConfig      `yaml:"relay"`
	Twilio     TwilioConfig     `yaml:"twilio"`
	ElevenLabs ElevenLabsConfig `yaml:"elevenlabs"`
	Auth       AuthConfig       `yaml:"auth"`
	Audit      AuditConfig      `yaml:"audit"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr         string        `yaml:"addr" envconfig:"CRC_ADDR"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"CRC_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"writeTimeout" envconfig:"CRC_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `yaml:"idleTimeout" envconfig:"CRC_IDLE_TIMEOUT"`

	// PublicBaseURL is the externally reachable base URL used to build the
	// webhook callback URLs handed to the telephony provider.
	PublicBaseURL string `yaml:"publicBaseUrl" envconfig:"CRC_PUBLIC_BASE_URL"`

	// WebSocketServerURL is the media-stream server the telephony leg is
	// connected to. The relay never dials it; it only appears in TwiML.
	WebSocketServerURL string `yaml:"websocketServerUrl" envconfig:"CRC_WEBSOCKET_SERVER_URL"`
}

// RelayConfig controls topic lifecycle and observer delivery.
type RelayConfig struct {
	// TopicIdleTTL bounds how long a topic with no subscribers and no
	// terminal status is retained. A late webhook for a reaped topic is
	// permanently dropped.
	TopicIdleTTL time.Duration `yaml:"topicIdleTtl" envconfig:"CRC_TOPIC_IDLE_TTL"`

	// KeepAliveInterval is the cadence of comment frames written to idle
	// observer connections so intermediate proxies keep them open.
	KeepAliveInterval time.Duration `yaml:"keepAliveInterval" envconfig:"CRC_KEEP_ALIVE_INTERVAL"`

	// MaxSubscribersPerTopic caps concurrent observers per call.
	// Zero means unlimited.
	MaxSubscribersPerTopic int `yaml:"maxSubscribersPerTopic" envconfig:"CRC_MAX_SUBSCRIBERS_PER_TOPIC"`

	// SinkBuffer is the per-observer event buffer; an observer that falls
	// this far behind is disconnected.
	SinkBuffer int `yaml:"sinkBuffer" envconfig:"CRC_SINK_BUFFER"`
}

// TwilioConfig holds telephony provider settings.
type TwilioConfig struct {
	AccountSID  string        `yaml:"accountSid" envconfig:"CRC_TWILIO_ACCOUNT_SID"`
	AuthToken   string        `yaml:"authToken" envconfig:"CRC_TWILIO_AUTH_TOKEN"`
	PhoneNumber string        `yaml:"phoneNumber" envconfig:"CRC_TWILIO_PHONE_NUMBER"`
	BaseURL     string        `yaml:"baseUrl" envconfig:"CRC_TWILIO_BASE_URL"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"CRC_TWILIO_TIMEOUT"`
}

// ElevenLabsConfig holds voice-AI provider settings.
type ElevenLabsConfig struct {
	APIKey  string        `yaml:"apiKey" envconfig:"CRC_ELEVENLABS_API_KEY"`
	AgentID string        `yaml:"agentId" envconfig:"CRC_ELEVENLABS_AGENT_ID"`
	BaseURL string        `yaml:"baseUrl" envconfig:"CRC_ELEVENLABS_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" envconfig:"CRC_ELEVENLABS_TIMEOUT"`
}

// AuthConfig controls the optional JWT middleware. Auth is disabled when no
// key material is configured.
type AuthConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"CRC_AUTH_ENABLED"`
	HMACKey  string `yaml:"hmacKey" envconfig:"CRC_AUTH_HMAC_KEY"`
	Issuer   string `yaml:"issuer" envconfig:"CRC_AUTH_ISSUER"`
	Audience string `yaml:"audience" envconfig:"CRC_AUTH_AUDIENCE"`
}

// AuditConfig controls the append-only audit log.
type AuditConfig struct {
	Dir        string `yaml:"dir" envconfig:"CRC_AUDIT_DIR"`
	MaxSizeMB  int    `yaml:"maxSizeMb" envconfig:"CRC_AUDIT_MAX_SIZE_MB"`
	MaxBackups int    `yaml:"maxBackups" envconfig:"CRC_AUDIT_MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"maxAgeDays" envconfig:"CRC_AUDIT_MAX_AGE_DAYS"`
}

// Default returns the compiled baseline configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8000",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 0, // streamed responses must not be cut off
			IdleTimeout:  120 * time.Second,
		},
		Relay: RelayConfig{
			TopicIdleTTL:      5 * time.Minute,
			KeepAliveInterval: 15 * time.Second,
			SinkBuffer:        100,
		},
		Twilio: TwilioConfig{
			BaseURL: "https://api.twilio.com",
			Timeout: 15 * time.Second,
		},
		ElevenLabs: ElevenLabsConfig{
			BaseURL: "https://api.elevenlabs.io",
			Timeout: 15 * time.Second,
		},
		Audit: AuditConfig{
			Dir:        "logs",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}
