// Package provider holds the shared plumbing for outbound calls to the
// telephony and voice-AI vendors: a retrying HTTP client and deterministic
// normalization of vendor failures onto container error codes.
package provider
