package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// DefaultFile is the optional configuration file probed by Load.
const DefaultFile = "config.yaml"

// Load merges defaults + CRC_* environment overrides + optional config.yaml,
// then validates the result.
func Load() (*Config, error) {
	return LoadFile(DefaultFile)
}

// LoadFile is Load with an explicit file path. A missing file is not an
// error; only defaults and environment apply then.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := envconfig.Process("crc", cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := mergeFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// mergeFile overlays non-zero values from a YAML file onto cfg. The file has
// the last word so an operator can pin values regardless of environment.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file Config
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return fmt.Errorf("malformed YAML: %w", err)
	}

	merge(cfg, &file)
	return nil
}

func merge(dst, src *Config) {
	if src.Server.Addr != "" {
		dst.Server.Addr = src.Server.Addr
	}
	if src.Server.ReadTimeout != 0 {
		dst.Server.ReadTimeout = src.Server.ReadTimeout
	}
	if src.Server.WriteTimeout != 0 {
		dst.Server.WriteTimeout = src.Server.WriteTimeout
	}
	if src.Server.IdleTimeout != 0 {
		dst.Server.IdleTimeout = src.Server.IdleTimeout
	}
	if src.Server.PublicBaseURL != "" {
		dst.Server.PublicBaseURL = src.Server.PublicBaseURL
	}
	if src.Server.WebSocketServerURL != "" {
		dst.Server.WebSocketServerURL = src.Server.WebSocketServerURL
	}

	if src.Relay.TopicIdleTTL != 0 {
		dst.Relay.TopicIdleTTL = src.Relay.TopicIdleTTL
	}
	if src.Relay.KeepAliveInterval != 0 {
		dst.Relay.KeepAliveInterval = src.Relay.KeepAliveInterval
	}
	if src.Relay.MaxSubscribersPerTopic != 0 {
		dst.Relay.MaxSubscribersPerTopic = src.Relay.MaxSubscribersPerTopic
	}
	if src.Relay.SinkBuffer != 0 {
		dst.Relay.SinkBuffer = src.Relay.SinkBuffer
	}

	if src.Twilio.AccountSID != "" {
		dst.Twilio.AccountSID = src.Twilio.AccountSID
	}
	if src.Twilio.AuthToken != "" {
		dst.Twilio.AuthToken = src.Twilio.AuthToken
	}
	if src.Twilio.PhoneNumber != "" {
		dst.Twilio.PhoneNumber = src.Twilio.PhoneNumber
	}
	if src.Twilio.BaseURL != "" {
		dst.Twilio.BaseURL = src.Twilio.BaseURL
	}
	if src.Twilio.Timeout != 0 {
		dst.Twilio.Timeout = src.Twilio.Timeout
	}

	if src.ElevenLabs.APIKey != "" {
		dst.ElevenLabs.APIKey = src.ElevenLabs.APIKey
	}
	if src.ElevenLabs.AgentID != "" {
		dst.ElevenLabs.AgentID = src.ElevenLabs.AgentID
	}
	if src.ElevenLabs.BaseURL != "" {
		dst.ElevenLabs.BaseURL = src.ElevenLabs.BaseURL
	}
	if src.ElevenLabs.Timeout != 0 {
		dst.ElevenLabs.Timeout = src.ElevenLabs.Timeout
	}

	if src.Auth.Enabled {
		dst.Auth.Enabled = true
	}
	if src.Auth.HMACKey != "" {
		dst.Auth.HMACKey = src.Auth.HMACKey
	}
	if src.Auth.Issuer != "" {
		dst.Auth.Issuer = src.Auth.Issuer
	}
	if src.Auth.Audience != "" {
		dst.Auth.Audience = src.Auth.Audience
	}

	if src.Audit.Dir != "" {
		dst.Audit.Dir = src.Audit.Dir
	}
	if src.Audit.MaxSizeMB != 0 {
		dst.Audit.MaxSizeMB = src.Audit.MaxSizeMB
	}
	if src.Audit.MaxBackups != 0 {
		dst.Audit.MaxBackups = src.Audit.MaxBackups
	}
	if src.Audit.MaxAgeDays != 0 {
		dst.Audit.MaxAgeDays = src.Audit.MaxAgeDays
	}
}
