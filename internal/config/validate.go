package config

import "fmt"

// Validate enforces the configuration invariants the relay depends on.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if cfg.Server.Addr == "" {
		return fmt.Errorf("server addr must not be empty")
	}
	if cfg.Server.ReadTimeout < 0 || cfg.Server.WriteTimeout < 0 || cfg.Server.IdleTimeout < 0 {
		return fmt.Errorf("server timeouts must be non-negative")
	}

	if cfg.Relay.TopicIdleTTL <= 0 {
		return fmt.Errorf("relay topic idle TTL must be positive, got %v", cfg.Relay.TopicIdleTTL)
	}
	if cfg.Relay.KeepAliveInterval <= 0 {
		return fmt.Errorf("relay keepalive interval must be positive, got %v", cfg.Relay.KeepAliveInterval)
	}
	if cfg.Relay.KeepAliveInterval >= cfg.Relay.TopicIdleTTL {
		return fmt.Errorf("relay keepalive interval %v must be shorter than topic idle TTL %v",
			cfg.Relay.KeepAliveInterval, cfg.Relay.TopicIdleTTL)
	}
	if cfg.Relay.MaxSubscribersPerTopic < 0 {
		return fmt.Errorf("relay max subscribers per topic must be non-negative, got %d",
			cfg.Relay.MaxSubscribersPerTopic)
	}
	if cfg.Relay.SinkBuffer <= 0 {
		return fmt.Errorf("relay sink buffer must be positive, got %d", cfg.Relay.SinkBuffer)
	}

	if cfg.Auth.Enabled && cfg.Auth.HMACKey == "" {
		return fmt.Errorf("auth enabled but no HMAC key configured")
	}

	if cfg.Audit.MaxSizeMB < 0 || cfg.Audit.MaxBackups < 0 || cfg.Audit.MaxAgeDays < 0 {
		return fmt.Errorf("audit rotation limits must be non-negative")
	}

	return nil
}
